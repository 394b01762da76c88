// Package inventory runs stock operations. Each operation writes its
// movement, the affected stock records and the matching journal entry in one
// unit of work.
package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/uow"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/validate"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/inventory"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/ledger"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/lock"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/logger"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Service handles stock operations and moving-average costing
type Service struct {
	scope     uow.TransactionScope
	locker    uow.KeyLocker
	logger    *zap.Logger
	publisher shared.EventPublisher
	metrics   *telemetry.LedgerMetrics
}

// NewService creates a new inventory Service. A nil locker disables key locking.
func NewService(scope uow.TransactionScope, locker uow.KeyLocker, logger *zap.Logger) *Service {
	return &Service{scope: scope, locker: locker, logger: logger}
}

// SetEventPublisher sets the publisher used after commit
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// SetMetrics sets the metrics recorder
func (s *Service) SetMetrics(m *telemetry.LedgerMetrics) {
	s.metrics = m
}

// CreateIngredient registers an ingredient
func (s *Service) CreateIngredient(ctx context.Context, req CreateIngredientRequest) (*inventory.Ingredient, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	ing, err := inventory.NewIngredient(req.Code, req.Name, req.Unit, inventory.Category(req.Category), req.CostPerUnitCents)
	if err != nil {
		return nil, err
	}
	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		if _, err := repos.Ingredients().FindByCode(ctx, ing.Code); err == nil {
			return shared.Newf(shared.CodeAlreadyExists, "Ingredient %s already exists", ing.Code)
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		return repos.Ingredients().Save(ctx, ing)
	})
	if err != nil {
		return nil, err
	}
	return ing, nil
}

// CreateLocation registers a stock location
func (s *Service) CreateLocation(ctx context.Context, req CreateLocationRequest) (*inventory.Location, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	loc, err := inventory.NewLocation(req.Code, req.Name)
	if err != nil {
		return nil, err
	}
	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		if _, err := repos.Locations().FindByCode(ctx, loc.Code); err == nil {
			return shared.Newf(shared.CodeAlreadyExists, "Location %s already exists", loc.Code)
		} else if !errors.Is(err, shared.ErrNotFound) {
			return err
		}
		return repos.Locations().Save(ctx, loc)
	})
	if err != nil {
		return nil, err
	}
	return loc, nil
}

// Purchase records stock bought into a location. The average cost is
// recomputed from every purchase into the pair, including this one.
func (s *Service) Purchase(ctx context.Context, req PurchaseRequest) (*MovementResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "purchase",
		telemetry.AttrIngredientID, req.IngredientID.String(),
		telemetry.AttrLocationID, req.LocationID.String(),
		telemetry.AttrQuantity, req.Quantity,
		telemetry.AttrAmountCents, req.TotalCostCents,
	)
	defer span.End()
	defer s.observe(ctx, "purchase", time.Now())

	release, err := s.acquire(ctx, lock.StockKey(req.IngredientID, req.LocationID))
	if err != nil {
		return nil, s.fail(span, err)
	}
	defer release()

	var res *MovementResult
	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		ing, err := findIngredient(ctx, repos, req.IngredientID)
		if err != nil {
			return err
		}
		if _, err := findLocation(ctx, repos, req.LocationID); err != nil {
			return err
		}
		if _, err := ledger.ResolveAccounts(ctx, repos.Accounts(), req.PaidFromCode); err != nil {
			return err
		}

		to := req.LocationID
		m, err := inventory.NewMovement(ing.ID, nil, &to, inventory.MovementTypePurchase, req.Quantity, req.Date)
		if err != nil {
			return err
		}
		m.WithCost(inventory.UnitCost(req.TotalCostCents, req.Quantity), req.TotalCostCents).WithNotes(req.Notes)
		if req.SourceType != "" {
			m.WithSource(req.SourceType, req.SourceID)
		}
		if err := repos.Movements().Create(ctx, m); err != nil {
			return err
		}

		item, err := stockItem(ctx, repos, ing.ID, to)
		if err != nil {
			return err
		}
		purchases, err := repos.Movements().FindPurchases(ctx, ing.ID, to)
		if err != nil {
			return err
		}
		item.Receive(m.Quantity, inventory.PurchaseAverage(purchases))
		if err := repos.Items().Save(ctx, item); err != nil {
			return err
		}

		entry, err := postMovementEntry(ctx, repos, ing, m, req.PaidFromCode)
		if err != nil {
			return err
		}
		res = &MovementResult{Movement: m, Ingredient: ing, Items: []*inventory.InventoryItem{item}, Entry: entry}
		return nil
	})
	if err != nil {
		return nil, s.fail(span, err)
	}

	s.afterCommit(ctx, res)
	return res, nil
}

// Usage consumes stock at the current average cost, falling back to the
// ingredient's default cost. Stock may go negative; the record is flagged.
// Usage sourced from an order posts no COGS entry, since the order posts
// the consumption to WIP.
func (s *Service) Usage(ctx context.Context, req UsageRequest) (*MovementResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "usage",
		telemetry.AttrIngredientID, req.IngredientID.String(),
		telemetry.AttrLocationID, req.LocationID.String(),
		telemetry.AttrQuantity, req.Quantity,
	)
	defer span.End()
	defer s.observe(ctx, "usage", time.Now())

	release, err := s.acquire(ctx, lock.StockKey(req.IngredientID, req.LocationID))
	if err != nil {
		return nil, s.fail(span, err)
	}
	defer release()

	var res *MovementResult
	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		sourceType := req.SourceType
		if sourceType == "" {
			sourceType = inventory.SourceTypeManual
		}
		var err error
		res, err = s.ConsumeInScope(ctx, repos, ConsumeRequest{
			IngredientID: req.IngredientID,
			LocationID:   req.LocationID,
			Quantity:     req.Quantity,
			Date:         req.Date,
			SourceType:   sourceType,
			SourceID:     req.SourceID,
			Notes:        req.Notes,
		})
		if err != nil {
			return err
		}
		if sourceType == inventory.SourceTypeOrder {
			return nil
		}
		res.Entry, err = postMovementEntry(ctx, repos, res.Ingredient, res.Movement, "")
		return err
	})
	if err != nil {
		return nil, s.fail(span, err)
	}

	s.afterCommit(ctx, res)
	return res, nil
}

// ConsumeInScope records a usage movement and reduces stock inside the
// caller's unit of work. It posts no journal entry and takes no lock; the
// caller owns both.
func (s *Service) ConsumeInScope(ctx context.Context, repos uow.Repositories, req ConsumeRequest) (*MovementResult, error) {
	if req.Quantity <= 0 {
		return nil, shared.NewDomainError(shared.CodeValidationFailed, "Validation failed: quantity: must be greater than 0")
	}
	ing, err := findIngredient(ctx, repos, req.IngredientID)
	if err != nil {
		return nil, err
	}
	if _, err := findLocation(ctx, repos, req.LocationID); err != nil {
		return nil, err
	}
	item, err := stockItem(ctx, repos, ing.ID, req.LocationID)
	if err != nil {
		return nil, err
	}

	from := req.LocationID
	m, err := inventory.NewMovement(ing.ID, &from, nil, inventory.MovementTypeUsage, req.Quantity, req.Date)
	if err != nil {
		return nil, err
	}
	unit := item.EffectiveUnitCost(ing.CostPerUnitCents)
	m.WithCost(unit, unit*req.Quantity).WithNotes(req.Notes)
	if req.SourceType != "" {
		m.WithSource(req.SourceType, req.SourceID)
	}
	if err := repos.Movements().Create(ctx, m); err != nil {
		return nil, err
	}

	item.Consume(req.Quantity)
	if err := repos.Items().Save(ctx, item); err != nil {
		return nil, err
	}
	return &MovementResult{Movement: m, Ingredient: ing, Items: []*inventory.InventoryItem{item}}, nil
}

// WriteOff expenses spoiled or lost stock to Waste & Shrinkage. The location
// must hold at least the written-off quantity.
func (s *Service) WriteOff(ctx context.Context, req WriteOffRequest) (*MovementResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "write_off",
		telemetry.AttrIngredientID, req.IngredientID.String(),
		telemetry.AttrLocationID, req.LocationID.String(),
		telemetry.AttrQuantity, req.Quantity,
	)
	defer span.End()
	defer s.observe(ctx, "write_off", time.Now())

	release, err := s.acquire(ctx, lock.StockKey(req.IngredientID, req.LocationID))
	if err != nil {
		return nil, s.fail(span, err)
	}
	defer release()

	var res *MovementResult
	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		ing, err := findIngredient(ctx, repos, req.IngredientID)
		if err != nil {
			return err
		}
		item, err := existingStock(ctx, repos, ing.ID, req.LocationID, req.Quantity, shared.CodeInsufficientStock)
		if err != nil {
			return err
		}

		from := req.LocationID
		m, err := inventory.NewMovement(ing.ID, &from, nil, inventory.MovementTypeWriteOff, req.Quantity, req.Date)
		if err != nil {
			return err
		}
		unit := item.EffectiveUnitCost(ing.CostPerUnitCents)
		m.WithCost(unit, unit*req.Quantity).WithNotes(req.Notes)
		if err := repos.Movements().Create(ctx, m); err != nil {
			return err
		}

		item.Consume(req.Quantity)
		if err := repos.Items().Save(ctx, item); err != nil {
			return err
		}
		entry, err := postMovementEntry(ctx, repos, ing, m, "")
		if err != nil {
			return err
		}
		res = &MovementResult{Movement: m, Ingredient: ing, Items: []*inventory.InventoryItem{item}, Entry: entry}
		return nil
	})
	if err != nil {
		return nil, s.fail(span, err)
	}

	s.afterCommit(ctx, res)
	return res, nil
}

// Transfer moves stock between locations. The destination blends the
// source's average cost into its own with a single weighted step.
func (s *Service) Transfer(ctx context.Context, req TransferRequest) (*MovementResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "transfer",
		telemetry.AttrIngredientID, req.IngredientID.String(),
		telemetry.AttrQuantity, req.Quantity,
	)
	defer span.End()
	defer s.observe(ctx, "transfer", time.Now())

	release, err := s.acquire(ctx,
		lock.StockKey(req.IngredientID, req.FromLocationID),
		lock.StockKey(req.IngredientID, req.ToLocationID),
	)
	if err != nil {
		return nil, s.fail(span, err)
	}
	defer release()

	var res *MovementResult
	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		ing, err := findIngredient(ctx, repos, req.IngredientID)
		if err != nil {
			return err
		}
		from, to := req.FromLocationID, req.ToLocationID
		m, err := inventory.NewMovement(ing.ID, &from, &to, inventory.MovementTypeTransfer, req.Quantity, req.Date)
		if err != nil {
			return err
		}
		if _, err := findLocation(ctx, repos, to); err != nil {
			return err
		}
		src, err := existingStock(ctx, repos, ing.ID, from, req.Quantity, shared.CodeInsufficientStock)
		if err != nil {
			return err
		}
		dst, err := stockItem(ctx, repos, ing.ID, to)
		if err != nil {
			return err
		}

		unit := src.EffectiveUnitCost(ing.CostPerUnitCents)
		m.WithCost(unit, unit*req.Quantity).WithNotes(req.Notes)
		if err := repos.Movements().Create(ctx, m); err != nil {
			return err
		}

		src.Consume(req.Quantity)
		dst.TransferIn(req.Quantity, unit)
		if err := saveItems(ctx, repos, src, dst); err != nil {
			return err
		}
		entry, err := postMovementEntry(ctx, repos, ing, m, "")
		if err != nil {
			return err
		}
		res = &MovementResult{Movement: m, Ingredient: ing, Items: []*inventory.InventoryItem{src, dst}, Entry: entry}
		return nil
	})
	if err != nil {
		return nil, s.fail(span, err)
	}

	s.afterCommit(ctx, res)
	return res, nil
}

// StockLevel returns the stock record for a pair
func (s *Service) StockLevel(ctx context.Context, ingredientID, locationID uuid.UUID) (*inventory.InventoryItem, error) {
	var item *inventory.InventoryItem
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		item, err = repos.Items().FindByIngredientAndLocation(ctx, ingredientID, locationID)
		return err
	})
	return item, err
}

// Movements returns every movement of an ingredient
func (s *Service) Movements(ctx context.Context, ingredientID uuid.UUID) ([]inventory.Movement, error) {
	var out []inventory.Movement
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		out, err = repos.Movements().FindByIngredient(ctx, ingredientID)
		return err
	})
	return out, err
}

// Valuation returns Σ quantity × average cost over the stock records of a
// category's ingredients
func (s *Service) Valuation(ctx context.Context, category inventory.Category) (int64, error) {
	if !category.IsValid() {
		return 0, shared.Newf("INVALID_CATEGORY", "Unknown inventory category %q", category)
	}
	var total int64
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		values, err := ValuationByCategory(ctx, repos)
		if err != nil {
			return err
		}
		total = values[category]
		return nil
	})
	return total, err
}

// ValuationByCategory values every stock record, grouped by category
func ValuationByCategory(ctx context.Context, repos uow.Repositories) (map[inventory.Category]int64, error) {
	ingredients, err := repos.Ingredients().FindAll(ctx)
	if err != nil {
		return nil, err
	}
	categoryOf := make(map[uuid.UUID]inventory.Category, len(ingredients))
	for _, ing := range ingredients {
		categoryOf[ing.ID] = ing.Category
	}
	items, err := repos.Items().FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[inventory.Category]int64, len(inventory.AllCategories()))
	for _, it := range items {
		out[categoryOf[it.IngredientID]] += it.ValueCents()
	}
	return out, nil
}

func (s *Service) acquire(ctx context.Context, keys ...string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	return s.locker.Acquire(ctx, keys...)
}

func (s *Service) observe(ctx context.Context, op string, start time.Time) {
	s.metrics.ObservePosting(ctx, op, time.Since(start))
}

func (s *Service) fail(span trace.Span, err error) error {
	telemetry.RecordError(span, err)
	return err
}

// afterCommit publishes the events of a committed operation
func (s *Service) afterCommit(ctx context.Context, res *MovementResult) {
	s.metrics.MovementRecorded(ctx, res.Movement.MovementType.String())
	events := make([]shared.DomainEvent, 0, 4)
	for _, it := range res.Items {
		events = append(events, shared.AggregateEvents(it)...)
	}
	events = append(events, inventory.NewMovementRecordedEvent(res.Movement))
	if res.Entry != nil {
		s.metrics.EntryPosted(ctx, res.Entry.EntryType)
		events = append(events, ledger.NewEntryPostedEvent(res.Entry))
	}

	logger.L(ctx).Debug("stock movement recorded",
		zap.String("movement_id", res.Movement.ID.String()),
		zap.String("movement_type", res.Movement.MovementType.String()),
		zap.Int64("quantity", res.Movement.Quantity),
		zap.Int64("total_cost_cents", res.Movement.TotalCostCents),
	)
	s.publish(ctx, events...)
}

func (s *Service) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish inventory events", zap.Error(err))
	}
}
