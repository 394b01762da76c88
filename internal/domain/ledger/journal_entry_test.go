package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/inventory"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJournalEntry(t *testing.T) {
	inv, cash := uuid.New(), uuid.New()
	date := time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC)

	t.Run("balanced entry", func(t *testing.T) {
		e, err := NewJournalEntry(date, EntryTypePurchase, "Movement x", "flour", []JournalLine{
			Debit(inv, 5000, "flour"),
			Credit(cash, 5000, "flour"),
		})

		require.NoError(t, err)
		assert.True(t, e.IsBalanced())
		assert.Equal(t, int64(5000), e.TotalDebits())
		assert.Equal(t, shared.DateOnly(date), e.EntryDate)
		require.Len(t, e.Lines, 2)
		assert.Equal(t, e.ID, e.Lines[0].EntryID)
		assert.Equal(t, 1, e.Lines[0].LineNo)
		assert.Equal(t, 2, e.Lines[1].LineNo)
	})

	t.Run("unbalanced entry is rejected", func(t *testing.T) {
		_, err := NewJournalEntry(date, EntryTypePurchase, "", "", []JournalLine{
			Debit(inv, 5000, ""),
			Credit(cash, 4999, ""),
		})

		assert.ErrorIs(t, err, shared.ErrUnbalancedEntry)
	})

	t.Run("no lines is rejected", func(t *testing.T) {
		_, err := NewJournalEntry(date, EntryTypePurchase, "", "", nil)
		assert.ErrorIs(t, err, shared.ErrUnbalancedEntry)
	})

	t.Run("negative amounts are rejected", func(t *testing.T) {
		_, err := NewJournalEntry(date, EntryTypePurchase, "", "", []JournalLine{
			Debit(inv, -5, ""),
			Credit(cash, -5, ""),
		})
		require.Error(t, err)
	})
}

func TestJournalEntry_ReversedLines(t *testing.T) {
	inv, cash := uuid.New(), uuid.New()
	e, err := NewJournalEntry(time.Now(), EntryTypePurchase, "", "", []JournalLine{
		Debit(inv, 700, ""),
		Credit(cash, 700, ""),
	})
	require.NoError(t, err)

	rev := e.ReversedLines()

	assert.Equal(t, int64(700), rev[0].CreditCents)
	assert.Equal(t, int64(700), rev[1].DebitCents)
	assert.NoError(t, ValidateLines(rev))
}

func TestAccount_Normalize(t *testing.T) {
	asset, err := NewAccount("1000", "Cash", AccountTypeAsset, "", true)
	require.NoError(t, err)
	liability, err := NewAccount("2100", "Deposits", AccountTypeLiability, "", false)
	require.NoError(t, err)

	assert.Equal(t, NormalBalanceDebit, asset.NormalBalance)
	assert.Equal(t, NormalBalanceCredit, liability.NormalBalance)
	assert.Equal(t, int64(300), asset.Normalize(500, 200))
	assert.Equal(t, int64(-300), liability.Normalize(500, 200))
}

func TestCategoryAccountLookup(t *testing.T) {
	for _, c := range inventory.AllCategories() {
		invCode, err := InventoryAccountFor(c)
		require.NoError(t, err)
		cogsCode, err := COGSAccountFor(c)
		require.NoError(t, err)
		assert.NotEqual(t, invCode, cogsCode)
	}

	code, err := InventoryAccountFor(inventory.CategoryPacking)
	require.NoError(t, err)
	assert.Equal(t, CodeInventoryPacking, code)

	_, err = COGSAccountFor(inventory.Category("bogus"))
	assert.Error(t, err)
}
