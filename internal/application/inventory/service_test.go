package inventory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	appledger "github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/ledger"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/uow"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/inventory"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/ledger"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/lock"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/persistence"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/persistence/persistencetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
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

func (p *recordingPublisher) ofType(eventType string) []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.DomainEvent
	for _, e := range p.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	svc     *Service
	ledger  *appledger.Service
	scope   *persistence.GormTransactionScope
	pub     *recordingPublisher
	flour   *inventory.Ingredient
	boxes   *inventory.Ingredient
	kitchen *inventory.Location
	pantry  *inventory.Location
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	scope, _ := persistencetest.NewScope(t)
	log := zaptest.NewLogger(t)

	ledgerSvc := appledger.NewService(scope, log)
	_, err := ledgerSvc.SeedChartOfAccounts(ctx)
	require.NoError(t, err)

	svc := NewService(scope, lock.NewLocalLocker(), log)
	pub := &recordingPublisher{}
	svc.SetEventPublisher(pub)

	f := &fixture{svc: svc, ledger: ledgerSvc, scope: scope, pub: pub}
	f.flour, err = svc.CreateIngredient(ctx, CreateIngredientRequest{Code: "FLOUR", Name: "Flour", Unit: "g", CostPerUnitCents: 5})
	require.NoError(t, err)
	f.boxes, err = svc.CreateIngredient(ctx, CreateIngredientRequest{Code: "BOX", Name: "Cookie box", Unit: "pc", Category: "packing", CostPerUnitCents: 30})
	require.NoError(t, err)
	f.kitchen, err = svc.CreateLocation(ctx, CreateLocationRequest{Code: "KITCHEN", Name: "Kitchen"})
	require.NoError(t, err)
	f.pantry, err = svc.CreateLocation(ctx, CreateLocationRequest{Code: "PANTRY", Name: "Pantry"})
	require.NoError(t, err)
	return f
}

func day(d int) time.Time {
	return time.Date(2025, time.March, d, 0, 0, 0, 0, time.UTC)
}

func (f *fixture) purchase(t *testing.T, ing *inventory.Ingredient, loc *inventory.Location, qty, total int64, d int) *MovementResult {
	t.Helper()
	res, err := f.svc.Purchase(context.Background(), PurchaseRequest{
		IngredientID:   ing.ID,
		LocationID:     loc.ID,
		Quantity:       qty,
		TotalCostCents: total,
		PaidFromCode:   ledger.CodeCash,
		Date:           day(d),
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) stock(t *testing.T, ing *inventory.Ingredient, loc *inventory.Location) *inventory.InventoryItem {
	t.Helper()
	item, err := f.svc.StockLevel(context.Background(), ing.ID, loc.ID)
	require.NoError(t, err)
	return item
}

func (f *fixture) balance(t *testing.T, code string) int64 {
	t.Helper()
	b, err := f.ledger.AccountBalanceByCode(context.Background(), code, nil)
	require.NoError(t, err)
	return b.BalanceCents
}

// assertStockMatchesMovements checks every stock record against the signed
// sum of the movements touching it, and every entry for balance
func (f *fixture) assertStockMatchesMovements(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	err := f.scope.Execute(ctx, func(repos uow.Repositories) error {
		items, err := repos.Items().FindAll(ctx)
		require.NoError(t, err)
		for _, it := range items {
			movements, err := repos.Movements().FindByIngredient(ctx, it.IngredientID)
			require.NoError(t, err)
			var sum int64
			for i := range movements {
				sum += movements[i].SignedQuantityAt(it.LocationID)
			}
			assert.Equal(t, sum, it.QuantityOnHand, "stock record %s", it.ID)
			assert.True(t, it.NegativeFlagConsistent())
		}
		entries, err := repos.Entries().FindAll(ctx)
		require.NoError(t, err)
		for _, e := range entries {
			assert.True(t, e.IsBalanced(), "entry %s %s", e.EntryType, e.Reference)
		}
		return nil
	})
	require.NoError(t, err)
}

func TestPurchase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res := f.purchase(t, f.flour, f.kitchen, 1000, 5000, 1)
	assert.Equal(t, int64(5), res.Movement.UnitCostCents)
	require.NotNil(t, res.Entry)
	assert.Equal(t, ledger.EntryTypePurchase, res.Entry.EntryType)
	assert.Equal(t, res.Movement.LedgerReference(), res.Entry.Reference)
	assert.Equal(t, int64(5000), res.Entry.TotalDebits())

	item := f.stock(t, f.flour, f.kitchen)
	assert.Equal(t, int64(1000), item.QuantityOnHand)
	assert.Equal(t, int64(5), item.AvgCostPerUnitCents)

	f.purchase(t, f.flour, f.kitchen, 500, 3000, 2)
	item = f.stock(t, f.flour, f.kitchen)
	assert.Equal(t, int64(1500), item.QuantityOnHand)
	assert.Equal(t, int64(5), item.AvgCostPerUnitCents)

	assert.Equal(t, int64(8000), f.balance(t, ledger.CodeInventoryIngredients))
	assert.Equal(t, int64(-8000), f.balance(t, ledger.CodeCash))
	assert.Len(t, f.pub.ofType(inventory.EventTypeMovementRecorded), 2)
	assert.Len(t, f.pub.ofType(ledger.EventTypeEntryPosted), 2)

	t.Run("zero cost purchase posts no entry", func(t *testing.T) {
		res := f.purchase(t, f.boxes, f.pantry, 10, 0, 3)
		assert.Nil(t, res.Entry)
		assert.Equal(t, int64(10), f.stock(t, f.boxes, f.pantry).QuantityOnHand)
	})

	t.Run("unknown cash account", func(t *testing.T) {
		_, err := f.svc.Purchase(ctx, PurchaseRequest{
			IngredientID: f.flour.ID, LocationID: f.kitchen.ID, Quantity: 1, TotalCostCents: 5,
			PaidFromCode: "1999", Date: day(4),
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("unknown ingredient", func(t *testing.T) {
		_, err := f.svc.Purchase(ctx, PurchaseRequest{
			IngredientID: uuid.New(), LocationID: f.kitchen.ID, Quantity: 1, TotalCostCents: 5,
			PaidFromCode: ledger.CodeCash, Date: day(4),
		})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("non-positive quantity", func(t *testing.T) {
		_, err := f.svc.Purchase(ctx, PurchaseRequest{
			IngredientID: f.flour.ID, LocationID: f.kitchen.ID, Quantity: 0, TotalCostCents: 5,
			PaidFromCode: ledger.CodeCash,
		})
		assert.ErrorIs(t, err, shared.ErrValidation)
	})

	f.assertStockMatchesMovements(t)
}

func TestUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("falls back to the default cost and goes negative", func(t *testing.T) {
		res, err := f.svc.Usage(ctx, UsageRequest{IngredientID: f.flour.ID, LocationID: f.kitchen.ID, Quantity: 200, Date: day(1)})
		require.NoError(t, err)
		assert.Equal(t, int64(5), res.Movement.UnitCostCents)
		assert.Equal(t, int64(1000), res.Movement.TotalCostCents)

		item := f.stock(t, f.flour, f.kitchen)
		assert.Equal(t, int64(-200), item.QuantityOnHand)
		assert.True(t, item.NegativeStock)

		assert.Equal(t, int64(1000), f.balance(t, ledger.CodeCOGSIngredients))
		assert.Equal(t, int64(-1000), f.balance(t, ledger.CodeInventoryIngredients))
		assert.Len(t, f.pub.ofType(inventory.EventTypeStockWentNegative), 1)
	})

	t.Run("uses the average once stock is bought", func(t *testing.T) {
		f.purchase(t, f.boxes, f.pantry, 10, 400, 2)
		res, err := f.svc.Usage(ctx, UsageRequest{IngredientID: f.boxes.ID, LocationID: f.pantry.ID, Quantity: 3, Date: day(3)})
		require.NoError(t, err)
		assert.Equal(t, int64(40), res.Movement.UnitCostCents)
		assert.Equal(t, int64(120), f.balance(t, ledger.CodeCOGSPacking))
		assert.Equal(t, int64(7), f.stock(t, f.boxes, f.pantry).QuantityOnHand)
	})

	f.assertStockMatchesMovements(t)
}

func TestUsage_OrderSourcePostsNoEntry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.purchase(t, f.flour, f.kitchen, 1000, 5000, 1)

	res, err := f.svc.Usage(ctx, UsageRequest{
		IngredientID: f.flour.ID, LocationID: f.kitchen.ID, Quantity: 200, Date: day(2),
		SourceType: inventory.SourceTypeOrder, SourceID: "order-17",
	})
	require.NoError(t, err)
	assert.Nil(t, res.Entry)
	assert.Equal(t, inventory.SourceTypeOrder, res.Movement.SourceType)
	assert.Equal(t, int64(1000), res.Movement.TotalCostCents)

	assert.Equal(t, int64(800), f.stock(t, f.flour, f.kitchen).QuantityOnHand)
	assert.Equal(t, int64(0), f.balance(t, ledger.CodeCOGSIngredients))
	assert.Equal(t, int64(5000), f.balance(t, ledger.CodeInventoryIngredients))
}

func TestWriteOff(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.WriteOff(ctx, WriteOffRequest{IngredientID: f.flour.ID, LocationID: f.kitchen.ID, Quantity: 5, Date: day(1)})
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	f.purchase(t, f.flour, f.kitchen, 100, 500, 1)
	_, err = f.svc.WriteOff(ctx, WriteOffRequest{IngredientID: f.flour.ID, LocationID: f.kitchen.ID, Quantity: 101, Date: day(2)})
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	res, err := f.svc.WriteOff(ctx, WriteOffRequest{IngredientID: f.flour.ID, LocationID: f.kitchen.ID, Quantity: 20, Date: day(2)})
	require.NoError(t, err)
	assert.Equal(t, ledger.EntryTypeWriteOff, res.Entry.EntryType)
	assert.Equal(t, int64(100), f.balance(t, ledger.CodeWasteShrinkage))
	assert.Equal(t, int64(80), f.stock(t, f.flour, f.kitchen).QuantityOnHand)

	f.assertStockMatchesMovements(t)
}

func TestTransfer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.purchase(t, f.flour, f.kitchen, 1000, 5000, 1)
	f.purchase(t, f.flour, f.pantry, 100, 1000, 1)

	res, err := f.svc.Transfer(ctx, TransferRequest{
		IngredientID: f.flour.ID, FromLocationID: f.kitchen.ID, ToLocationID: f.pantry.ID, Quantity: 400, Date: day(2),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2000), res.Movement.TotalCostCents)
	assert.Equal(t, int64(2000), res.Entry.TotalDebits())

	src, dst := f.stock(t, f.flour, f.kitchen), f.stock(t, f.flour, f.pantry)
	assert.Equal(t, int64(600), src.QuantityOnHand)
	assert.Equal(t, int64(5), src.AvgCostPerUnitCents)
	assert.Equal(t, int64(500), dst.QuantityOnHand)
	assert.Equal(t, int64(6), dst.AvgCostPerUnitCents)

	// same inventory account on both sides
	assert.Equal(t, int64(6000), f.balance(t, ledger.CodeInventoryIngredients))

	t.Run("source must cover the quantity", func(t *testing.T) {
		_, err := f.svc.Transfer(ctx, TransferRequest{
			IngredientID: f.flour.ID, FromLocationID: f.kitchen.ID, ToLocationID: f.pantry.ID, Quantity: 601, Date: day(3),
		})
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	})

	t.Run("locations must differ", func(t *testing.T) {
		_, err := f.svc.Transfer(ctx, TransferRequest{
			IngredientID: f.flour.ID, FromLocationID: f.kitchen.ID, ToLocationID: f.kitchen.ID, Quantity: 1, Date: day(3),
		})
		assert.Equal(t, "INVALID_LOCATION", shared.CodeOf(err))
	})

	t.Run("update re-applies at the new quantity", func(t *testing.T) {
		upd, err := f.svc.UpdateTransfer(ctx, UpdateTransferRequest{MovementID: res.Movement.ID, Quantity: 200, Date: day(2)})
		require.NoError(t, err)
		assert.Equal(t, int64(1000), upd.Entry.TotalDebits())

		src, dst := f.stock(t, f.flour, f.kitchen), f.stock(t, f.flour, f.pantry)
		assert.Equal(t, int64(800), src.QuantityOnHand)
		assert.Equal(t, int64(300), dst.QuantityOnHand)
		assert.Equal(t, int64(7), dst.AvgCostPerUnitCents)
	})

	t.Run("update beyond the source fails", func(t *testing.T) {
		_, err := f.svc.UpdateTransfer(ctx, UpdateTransferRequest{MovementID: res.Movement.ID, Quantity: 5000})
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	})

	t.Run("delete restores both locations", func(t *testing.T) {
		require.NoError(t, f.svc.DeleteTransfer(ctx, res.Movement.ID))

		src, dst := f.stock(t, f.flour, f.kitchen), f.stock(t, f.flour, f.pantry)
		assert.Equal(t, int64(1000), src.QuantityOnHand)
		assert.Equal(t, int64(5), src.AvgCostPerUnitCents)
		assert.Equal(t, int64(100), dst.QuantityOnHand)

		entries, err := f.ledger.FindByTypeAndReference(ctx, ledger.EntryTypeTransfer, res.Movement.LedgerReference())
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("delete of a purchase through the transfer path", func(t *testing.T) {
		p := f.purchase(t, f.flour, f.kitchen, 1, 5, 9)
		assert.ErrorIs(t, f.svc.DeleteTransfer(ctx, p.Movement.ID), shared.ErrNotATransfer)
	})

	f.assertStockMatchesMovements(t)
}

func TestDeletePurchase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.purchase(t, f.flour, f.kitchen, 1000, 5000, 1)
	second := f.purchase(t, f.flour, f.kitchen, 500, 3000, 2)

	require.NoError(t, f.svc.DeletePurchase(ctx, second.Movement.ID))

	item := f.stock(t, f.flour, f.kitchen)
	assert.Equal(t, int64(1000), item.QuantityOnHand)
	// (1500×5 − 3000) / 1000 = 4.5, rounded away from zero
	assert.Equal(t, int64(5), item.AvgCostPerUnitCents)
	assert.Equal(t, int64(5000), f.balance(t, ledger.CodeInventoryIngredients))

	err := f.svc.DeletePurchase(ctx, second.Movement.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	usage, err := f.svc.Usage(ctx, UsageRequest{IngredientID: f.flour.ID, LocationID: f.kitchen.ID, Quantity: 1, Date: day(3)})
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.DeletePurchase(ctx, usage.Movement.ID), shared.ErrNotAPurchase)

	f.assertStockMatchesMovements(t)
}

func TestUpdatePurchase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Purchase(ctx, PurchaseRequest{
		IngredientID: f.flour.ID, LocationID: f.kitchen.ID, Quantity: 1000, TotalCostCents: 5000,
		PaidFromCode: ledger.CodeBank, Date: day(1),
	})
	require.NoError(t, err)

	upd, err := f.svc.UpdatePurchase(ctx, UpdatePurchaseRequest{MovementID: res.Movement.ID, Quantity: 800, TotalCostCents: 4800})
	require.NoError(t, err)
	assert.Equal(t, res.Entry.ID, upd.Entry.ID)
	assert.Equal(t, int64(4800), upd.Entry.TotalCredits())

	item := f.stock(t, f.flour, f.kitchen)
	assert.Equal(t, int64(800), item.QuantityOnHand)
	assert.Equal(t, int64(6), item.AvgCostPerUnitCents)
	assert.Equal(t, int64(-4800), f.balance(t, ledger.CodeBank))
	assert.Equal(t, int64(0), f.balance(t, ledger.CodeCash))

	t.Run("moves the payment to another account", func(t *testing.T) {
		_, err := f.svc.UpdatePurchase(ctx, UpdatePurchaseRequest{
			MovementID: res.Movement.ID, Quantity: 800, TotalCostCents: 4800, PaidFromCode: ledger.CodeCash,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(0), f.balance(t, ledger.CodeBank))
		assert.Equal(t, int64(-4800), f.balance(t, ledger.CodeCash))
	})

	f.assertStockMatchesMovements(t)
}

func TestReturnPurchase(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Purchase(ctx, PurchaseRequest{
		IngredientID: f.flour.ID, LocationID: f.kitchen.ID, Quantity: 1000, TotalCostCents: 5000,
		PaidFromCode: ledger.CodeBank, Date: day(1),
	})
	require.NoError(t, err)

	ret, err := f.svc.ReturnPurchase(ctx, ReturnPurchaseRequest{MovementID: res.Movement.ID, Date: day(2)})
	require.NoError(t, err)
	assert.Equal(t, inventory.MovementTypeReturn, ret.Movement.MovementType)
	assert.Equal(t, inventory.SourceTypeMovement, ret.Movement.SourceType)
	assert.Equal(t, ledger.EntryTypePurchaseReturn, ret.Entry.EntryType)

	item := f.stock(t, f.flour, f.kitchen)
	assert.Equal(t, int64(0), item.QuantityOnHand)
	assert.Equal(t, int64(5), item.AvgCostPerUnitCents)
	assert.Equal(t, int64(0), f.balance(t, ledger.CodeBank))
	assert.Equal(t, int64(0), f.balance(t, ledger.CodeInventoryIngredients))

	_, err = f.svc.ReturnPurchase(ctx, ReturnPurchaseRequest{MovementID: res.Movement.ID, Date: day(3)})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	t.Run("stock already consumed", func(t *testing.T) {
		p := f.purchase(t, f.boxes, f.pantry, 100, 3000, 4)
		_, err := f.svc.Usage(ctx, UsageRequest{IngredientID: f.boxes.ID, LocationID: f.pantry.ID, Quantity: 50, Date: day(5)})
		require.NoError(t, err)

		_, err = f.svc.ReturnPurchase(ctx, ReturnPurchaseRequest{MovementID: p.Movement.ID, Date: day(6)})
		assert.ErrorIs(t, err, shared.ErrInsufficientQuantity)
	})

	t.Run("average keeps the returned purchase", func(t *testing.T) {
		sugar, err := f.svc.CreateIngredient(ctx, CreateIngredientRequest{Code: "SUGAR", Name: "Sugar", Unit: "g", CostPerUnitCents: 1})
		require.NoError(t, err)
		f.purchase(t, sugar, f.kitchen, 100, 100, 7)
		second := f.purchase(t, sugar, f.kitchen, 100, 300, 8)
		assert.Equal(t, int64(2), f.stock(t, sugar, f.kitchen).AvgCostPerUnitCents)

		_, err = f.svc.ReturnPurchase(ctx, ReturnPurchaseRequest{MovementID: second.Movement.ID, Date: day(9)})
		require.NoError(t, err)

		item := f.stock(t, sugar, f.kitchen)
		assert.Equal(t, int64(100), item.QuantityOnHand)
		assert.Equal(t, int64(2), item.AvgCostPerUnitCents)
	})

	t.Run("not a purchase", func(t *testing.T) {
		_, err := f.svc.ReturnPurchase(ctx, ReturnPurchaseRequest{MovementID: ret.Movement.ID})
		assert.ErrorIs(t, err, shared.ErrNotAPurchase)
	})

	f.assertStockMatchesMovements(t)
}

func TestValuation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.purchase(t, f.flour, f.kitchen, 1000, 5000, 1)
	f.purchase(t, f.boxes, f.pantry, 10, 300, 1)

	v, err := f.svc.Valuation(ctx, inventory.CategoryIngredients)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), v)
	assert.Equal(t, f.balance(t, ledger.CodeInventoryIngredients), v)

	v, err = f.svc.Valuation(ctx, inventory.CategoryPacking)
	require.NoError(t, err)
	assert.Equal(t, int64(300), v)

	_, err = f.svc.Valuation(ctx, inventory.Category("frozen"))
	assert.Equal(t, "INVALID_CATEGORY", shared.CodeOf(err))
}

func TestCreateIngredient_Duplicate(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateIngredient(context.Background(), CreateIngredientRequest{Code: "FLOUR", Name: "Flour again", Unit: "g"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	_, err = f.svc.CreateLocation(context.Background(), CreateLocationRequest{Code: "KITCHEN"})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestConcurrentUsage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.purchase(t, f.flour, f.kitchen, 1000, 5000, 1)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Usage(ctx, UsageRequest{IngredientID: f.flour.ID, LocationID: f.kitchen.ID, Quantity: 10, Date: day(2)})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	assert.Equal(t, int64(900), f.stock(t, f.flour, f.kitchen).QuantityOnHand)
	f.assertStockMatchesMovements(t)
}
