package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/ledger"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/persistence/persistencetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

type failingPublisher struct{}

func (failingPublisher) Publish(context.Context, ...shared.DomainEvent) error {
	return errors.New("bus closed")
}

func newTestService(t *testing.T) (*Service, *recordingPublisher) {
	t.Helper()
	scope, _ := persistencetest.NewScope(t)
	svc := NewService(scope, zaptest.NewLogger(t))
	pub := &recordingPublisher{}
	svc.SetEventPublisher(pub)
	_, err := svc.SeedChartOfAccounts(context.Background())
	require.NoError(t, err)
	return svc, pub
}

func day(d int) time.Time {
	return time.Date(2025, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestSeedChartOfAccounts_Idempotent(t *testing.T) {
	svc, _ := newTestService(t)

	again, err := svc.SeedChartOfAccounts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, again.Created)
	assert.Equal(t, len(ledger.StandardChart()), again.Existing)

	cash, err := svc.FindAccountByCode(context.Background(), ledger.CodeCash)
	require.NoError(t, err)
	assert.True(t, cash.IsCash)
	assert.Equal(t, ledger.NormalBalanceDebit, cash.NormalBalance)
}

func TestCreateAccount(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	acc, err := svc.CreateAccount(ctx, CreateAccountRequest{Code: "1020", Name: "Petty Cash", Type: "asset", IsCash: true})
	require.NoError(t, err)
	assert.Equal(t, ledger.NormalBalanceDebit, acc.NormalBalance)

	_, err = svc.CreateAccount(ctx, CreateAccountRequest{Code: "1020", Name: "Again", Type: "asset"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	_, err = svc.CreateAccount(ctx, CreateAccountRequest{Code: "9999", Name: "Bad", Type: "income"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestPostEntry(t *testing.T) {
	svc, pub := newTestService(t)
	ctx := context.Background()

	t.Run("unbalanced lines are rejected and nothing is written", func(t *testing.T) {
		_, err := svc.PostEntry(ctx, PostEntryRequest{
			EntryDate: day(1),
			EntryType: "manual",
			Lines: []LineInput{
				{AccountCode: ledger.CodeCash, DebitCents: 1000},
				{AccountCode: ledger.CodeOwnersEquity, CreditCents: 900},
			},
		})
		assert.ErrorIs(t, err, shared.ErrUnbalancedEntry)

		entries, err := svc.ListByType(ctx, "manual")
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("unknown account code is not found", func(t *testing.T) {
		_, err := svc.PostEntry(ctx, PostEntryRequest{
			EntryType: "manual",
			Lines: []LineInput{
				{AccountCode: "0000", DebitCents: 1},
				{AccountCode: ledger.CodeCash, CreditCents: 1},
			},
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("balanced entry posts and publishes", func(t *testing.T) {
		entry, err := svc.PostEntry(ctx, PostEntryRequest{
			EntryDate: day(2),
			EntryType: "capital",
			Reference: "Opening",
			Lines: []LineInput{
				{AccountCode: ledger.CodeCash, DebitCents: 50000},
				{AccountCode: ledger.CodeOwnersEquity, CreditCents: 50000},
			},
		})
		require.NoError(t, err)
		assert.True(t, entry.IsBalanced())
		assert.Len(t, entry.Lines, 2)
		require.Len(t, pub.events, 1)
		assert.Equal(t, ledger.EventTypeEntryPosted, pub.events[0].EventType())
	})
}

func TestAccountBalance_AsOfIsInclusive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	post := func(d int, cents int64) {
		_, err := svc.PostEntry(ctx, PostEntryRequest{
			EntryDate: day(d),
			EntryType: "capital",
			Lines: []LineInput{
				{AccountCode: ledger.CodeCash, DebitCents: cents},
				{AccountCode: ledger.CodeOwnersEquity, CreditCents: cents},
			},
		})
		require.NoError(t, err)
	}
	post(1, 1000)
	post(5, 2000)

	asOf := day(5)
	cash, err := svc.AccountBalanceByCode(ctx, ledger.CodeCash, &asOf)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), cash.BalanceCents)

	before := day(4)
	cash, err = svc.AccountBalanceByCode(ctx, ledger.CodeCash, &before)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), cash.BalanceCents)

	equity, err := svc.AccountBalanceByCode(ctx, ledger.CodeOwnersEquity, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), equity.BalanceCents, "credit-normal accounts report credit minus debit")
}

func TestReplaceEntryLines(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	entry, err := svc.PostEntry(ctx, PostEntryRequest{
		EntryDate: day(1),
		EntryType: "capital",
		Lines: []LineInput{
			{AccountCode: ledger.CodeCash, DebitCents: 1000},
			{AccountCode: ledger.CodeOwnersEquity, CreditCents: 1000},
		},
	})
	require.NoError(t, err)

	_, err = svc.ReplaceEntryLines(ctx, entry.ID, []LineInput{
		{AccountCode: ledger.CodeBank, DebitCents: 700},
	})
	assert.ErrorIs(t, err, shared.ErrUnbalancedEntry)

	updated, err := svc.ReplaceEntryLines(ctx, entry.ID, []LineInput{
		{AccountCode: ledger.CodeBank, DebitCents: 700},
		{AccountCode: ledger.CodeOwnersEquity, CreditCents: 700},
	})
	require.NoError(t, err)
	assert.Len(t, updated.Lines, 2)

	cash, err := svc.AccountBalanceByCode(ctx, ledger.CodeCash, nil)
	require.NoError(t, err)
	assert.Zero(t, cash.BalanceCents)
	bank, err := svc.AccountBalanceByCode(ctx, ledger.CodeBank, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(700), bank.BalanceCents)
}

func TestRecordWithdrawal(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	entry, err := svc.RecordWithdrawal(ctx, WithdrawalRequest{AmountCents: 2500, PaidFromCode: ledger.CodeCash, Date: day(3)})
	require.NoError(t, err)
	assert.Equal(t, ledger.EntryTypeWithdrawal, entry.EntryType)

	drawings, err := svc.AccountBalanceByCode(ctx, ledger.CodeOwnersDrawings, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), drawings.BalanceCents)

	_, err = svc.RecordWithdrawal(ctx, WithdrawalRequest{AmountCents: 100, PaidFromCode: ledger.CodeSales})
	assert.Equal(t, "INVALID_ACCOUNT", shared.CodeOf(err))

	_, err = svc.RecordWithdrawal(ctx, WithdrawalRequest{AmountCents: 0, PaidFromCode: ledger.CodeCash})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestPublishFailureIsLogged(t *testing.T) {
	scope, _ := persistencetest.NewScope(t)
	core, logs := observer.New(zapcore.WarnLevel)
	svc := NewService(scope, zap.New(core))
	svc.SetEventPublisher(failingPublisher{})
	ctx := context.Background()
	_, err := svc.SeedChartOfAccounts(ctx)
	require.NoError(t, err)

	entry, err := svc.RecordWithdrawal(ctx, WithdrawalRequest{AmountCents: 700, PaidFromCode: ledger.CodeCash, Date: day(4)})
	require.NoError(t, err)
	assert.NotNil(t, entry)

	warnings := logs.FilterMessage("failed to publish ledger events").All()
	require.NotEmpty(t, warnings)
	assert.Equal(t, "bus closed", warnings[0].ContextMap()["error"])
}

func TestListings(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for d := 1; d <= 3; d++ {
		_, err := svc.PostEntry(ctx, PostEntryRequest{
			EntryDate: day(d),
			EntryType: "capital",
			Reference: "Opening",
			Lines: []LineInput{
				{AccountCode: ledger.CodeCash, DebitCents: 10},
				{AccountCode: ledger.CodeOwnersEquity, CreditCents: 10},
			},
		})
		require.NoError(t, err)
	}

	byRef, err := svc.FindByTypeAndReference(ctx, "capital", "Opening")
	require.NoError(t, err)
	assert.Len(t, byRef, 3)

	ranged, err := svc.ListByDateRange(ctx, day(2), day(3))
	require.NoError(t, err)
	assert.Len(t, ranged, 2)

	_, err = svc.ListByDateRange(ctx, day(3), day(1))
	assert.ErrorIs(t, err, shared.ErrValidation)

	require.NoError(t, svc.DeleteEntry(ctx, byRef[0].ID))
	assert.ErrorIs(t, svc.DeleteEntry(ctx, byRef[0].ID), shared.ErrNotFound)
}
