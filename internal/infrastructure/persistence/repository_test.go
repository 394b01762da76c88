package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/uow"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/inventory"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/ledger"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/order"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/persistence"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/persistence/persistencetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func date(d int) time.Time {
	return time.Date(2025, time.February, d, 0, 0, 0, 0, time.UTC)
}

func TestRepositories_SQLite(t *testing.T) {
	runRepositoryTests(t, persistencetest.NewDB)
}

// runRepositoryTests exercises every repository against a fresh schema
// per subtest
func runRepositoryTests(t *testing.T, open func(testing.TB) *gorm.DB) {
	t.Run("accounts", func(t *testing.T) { testAccounts(t, persistence.NewRepositories(open(t))) })
	t.Run("journal entries", func(t *testing.T) { testJournalEntries(t, persistence.NewRepositories(open(t))) })
	t.Run("stock", func(t *testing.T) { testStock(t, persistence.NewRepositories(open(t))) })
	t.Run("orders", func(t *testing.T) { testOrders(t, persistence.NewRepositories(open(t))) })
}

func seedAccounts(t *testing.T, repos uow.Repositories) *ledger.AccountSet {
	t.Helper()
	ctx := context.Background()
	for _, spec := range ledger.StandardChart() {
		a, err := ledger.NewAccount(spec.Code, spec.Name, spec.Type, spec.NormalBalance, spec.IsCash)
		require.NoError(t, err)
		require.NoError(t, repos.Accounts().Save(ctx, a))
	}
	set, err := ledger.LoadAccountSet(ctx, repos.Accounts())
	require.NoError(t, err)
	return set
}

func testAccounts(t *testing.T, repos uow.Repositories) {
	ctx := context.Background()
	seedAccounts(t, repos)

	cash, err := repos.Accounts().FindByCode(ctx, ledger.CodeCash)
	require.NoError(t, err)
	assert.True(t, cash.IsCash)

	byID, err := repos.Accounts().FindByID(ctx, cash.ID)
	require.NoError(t, err)
	assert.Equal(t, cash.Code, byID.Code)

	all, err := repos.Accounts().FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(ledger.StandardChart()))
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Code, all[i].Code)
	}

	_, err = repos.Accounts().FindByCode(ctx, "9999")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func testJournalEntries(t *testing.T, repos uow.Repositories) {
	ctx := context.Background()
	accounts := seedAccounts(t, repos)
	cash, sales := accounts.ID(ledger.CodeCash), accounts.ID(ledger.CodeSales)
	entries := repos.Entries()

	post := func(d int, ref string, cents int64) *ledger.JournalEntry {
		e, err := ledger.NewJournalEntry(date(d), ledger.EntryTypeOrderPayment, ref, "", []ledger.JournalLine{
			ledger.Debit(cash, cents, ""),
			ledger.Credit(sales, cents, ""),
		})
		require.NoError(t, err)
		require.NoError(t, entries.Create(ctx, e))
		return e
	}
	late := post(9, "Order #2", 300)
	early := post(3, "Order #1", 100)

	all, err := entries.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, early.ID, all[0].ID)
	require.Len(t, all[0].Lines, 2)
	assert.Equal(t, 1, all[0].Lines[0].LineNo)

	found, err := entries.FindByTypeAndReference(ctx, ledger.EntryTypeOrderPayment, "Order #2")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, late.ID, found[0].ID)

	exists, err := entries.ExistsByTypeAndReference(ctx, ledger.EntryTypeOrderPayment, "Order #3")
	require.NoError(t, err)
	assert.False(t, exists)

	ranged, err := entries.FindByDateRange(ctx, date(1), date(5))
	require.NoError(t, err)
	require.Len(t, ranged, 1)

	totals, err := entries.AccountTotals(ctx, cash, nil)
	require.NoError(t, err)
	assert.Equal(t, ledger.LineTotals{Debits: 400}, totals)
	asOf := date(5)
	totals, err = entries.AccountTotals(ctx, cash, &asOf)
	require.NoError(t, err)
	assert.Equal(t, int64(100), totals.Debits)

	t.Run("replace lines moves the date", func(t *testing.T) {
		require.NoError(t, late.ReplaceLines([]ledger.JournalLine{
			ledger.Debit(cash, 250, ""),
			ledger.Credit(sales, 250, ""),
		}))
		late.EntryDate = date(10)
		require.NoError(t, entries.ReplaceLines(ctx, late))

		got, err := entries.FindByID(ctx, late.ID)
		require.NoError(t, err)
		assert.Equal(t, date(10), got.EntryDate.UTC())
		require.Len(t, got.Lines, 2)
		assert.Equal(t, int64(250), got.TotalDebits())
	})

	t.Run("delete removes lines", func(t *testing.T) {
		require.NoError(t, entries.Delete(ctx, early.ID))
		assert.ErrorIs(t, entries.Delete(ctx, early.ID), shared.ErrNotFound)

		_, err := entries.FindByID(ctx, early.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		totals, err := entries.AccountTotals(ctx, cash, nil)
		require.NoError(t, err)
		assert.Equal(t, int64(250), totals.Debits)
	})
}

func testStock(t *testing.T, repos uow.Repositories) {
	ctx := context.Background()
	flour, err := inventory.NewIngredient("FLOUR", "Flour", "g", inventory.CategoryIngredients, 5)
	require.NoError(t, err)
	require.NoError(t, repos.Ingredients().Save(ctx, flour))
	kitchen, err := inventory.NewLocation("KITCHEN", "Kitchen")
	require.NoError(t, err)
	require.NoError(t, repos.Locations().Save(ctx, kitchen))
	pantry, err := inventory.NewLocation("PANTRY", "Pantry")
	require.NoError(t, err)
	require.NoError(t, repos.Locations().Save(ctx, pantry))

	t.Run("stock record per pair", func(t *testing.T) {
		_, err := repos.Items().FindByIngredientAndLocation(ctx, flour.ID, kitchen.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		item, err := inventory.NewInventoryItem(flour.ID, kitchen.ID)
		require.NoError(t, err)
		item.Receive(100, 5)
		require.NoError(t, repos.Items().Save(ctx, item))

		got, err := repos.Items().FindByIngredientAndLocation(ctx, flour.ID, kitchen.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(100), got.QuantityOnHand)
		assert.Equal(t, int64(5), got.AvgCostPerUnitCents)
	})

	move := func(mt inventory.MovementType, from, to *uuid.UUID, qty int64, d int) *inventory.Movement {
		m, err := inventory.NewMovement(flour.ID, from, to, mt, qty, date(d))
		require.NoError(t, err)
		require.NoError(t, repos.Movements().Create(ctx, m))
		return m
	}
	p2 := move(inventory.MovementTypePurchase, nil, &kitchen.ID, 50, 8)
	p1 := move(inventory.MovementTypePurchase, nil, &kitchen.ID, 100, 2)
	move(inventory.MovementTypePurchase, nil, &pantry.ID, 10, 3)
	usage := move(inventory.MovementTypeUsage, &kitchen.ID, nil, 20, 4)
	usage.WithSource(inventory.SourceTypeOrder, "order-1")
	require.NoError(t, repos.Movements().Save(ctx, usage))

	purchases, err := repos.Movements().FindPurchases(ctx, flour.ID, kitchen.ID)
	require.NoError(t, err)
	require.Len(t, purchases, 2)
	assert.Equal(t, p1.ID, purchases[0].ID)
	assert.Equal(t, p2.ID, purchases[1].ID)

	asOf := date(5)
	byIngredient, err := repos.Movements().FindPurchasesByIngredient(ctx, flour.ID, &asOf)
	require.NoError(t, err)
	assert.Len(t, byIngredient, 2)

	bySource, err := repos.Movements().FindBySource(ctx, inventory.SourceTypeOrder, "order-1")
	require.NoError(t, err)
	require.Len(t, bySource, 1)
	assert.Equal(t, usage.ID, bySource[0].ID)

	require.NoError(t, repos.Movements().Delete(ctx, p2.ID))
	_, err = repos.Movements().FindByID(ctx, p2.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	all, err := repos.Movements().FindByIngredient(ctx, flour.ID)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func testOrders(t *testing.T, repos uow.Repositories) {
	ctx := context.Background()
	accounts := seedAccounts(t, repos)
	kitchen, err := inventory.NewLocation("KITCHEN", "Kitchen")
	require.NoError(t, err)
	require.NoError(t, repos.Locations().Save(ctx, kitchen))
	flour, err := inventory.NewIngredient("FLOUR", "Flour", "g", inventory.CategoryIngredients, 5)
	require.NoError(t, err)
	require.NoError(t, repos.Ingredients().Save(ctx, flour))

	product, err := order.NewProduct("COOKIES", "Cookies", 2500)
	require.NoError(t, err)
	require.NoError(t, repos.Products().Save(ctx, product))
	line, err := order.NewRecipeLine(product.ID, flour.ID, 200)
	require.NoError(t, err)
	require.NoError(t, repos.Products().SaveRecipeLine(ctx, line))

	recipe, err := repos.Products().FindRecipe(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, recipe, 1)
	assert.Equal(t, int64(200), recipe[0].Quantity)

	o1, err := order.NewOrder(1, product.ID, kitchen.ID, date(10), 2500, 0)
	require.NoError(t, err)
	require.NoError(t, repos.Orders().Save(ctx, o1))
	o2, err := order.NewOrder(2, product.ID, kitchen.ID, date(11), 2500, 0)
	require.NoError(t, err)
	_, err = o2.TransitionTo(order.StatusInPrep)
	require.NoError(t, err)
	require.NoError(t, repos.Orders().Save(ctx, o2))

	inPrep, err := repos.Orders().FindByStatus(ctx, order.StatusInPrep)
	require.NoError(t, err)
	require.Len(t, inPrep, 1)
	assert.Equal(t, o2.ID, inPrep[0].ID)

	byNumber, err := repos.Orders().FindByNumber(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, o1.ID, byNumber.ID)
	_, err = repos.Orders().FindByNumber(ctx, 99)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	ov, err := order.NewIngredientOverride(o1.ID, flour.ID, 50)
	require.NoError(t, err)
	require.NoError(t, repos.Orders().SaveOverride(ctx, ov))
	overrides, err := repos.Orders().FindOverrides(ctx, o1.ID)
	require.NoError(t, err)
	require.Len(t, overrides, 1)

	pay, err := order.NewPayment(o1.ID, order.PaymentKindDeposit, 1000, date(2), accounts.ID(ledger.CodeCash))
	require.NoError(t, err)
	require.NoError(t, repos.Payments().Create(ctx, pay))
	payments, err := repos.Payments().FindByOrder(ctx, o1.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, int64(1000), payments[0].AmountCents)
}
