package inventory

import (
	"context"
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
	"go.uber.org/zap"
)

// lockMovement reads a movement and takes the stock keys of every pair it
// touches
func (s *Service) lockMovement(ctx context.Context, id uuid.UUID) (func(), error) {
	var keys []string
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		m, err := findMovement(ctx, repos, id)
		if err != nil {
			return err
		}
		for _, loc := range m.Touches() {
			keys = append(keys, lock.StockKey(m.IngredientID, loc))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.acquire(ctx, keys...)
}

// ReturnPurchase sends a whole purchase back to the supplier. The return
// carries the purchase's cost, and the cash account the purchase was paid
// from is refunded.
func (s *Service) ReturnPurchase(ctx context.Context, req ReturnPurchaseRequest) (*MovementResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "return_purchase",
		telemetry.AttrMovementID, req.MovementID.String(),
	)
	defer span.End()
	defer s.observe(ctx, "return_purchase", time.Now())

	release, err := s.lockMovement(ctx, req.MovementID)
	if err != nil {
		return nil, s.fail(span, err)
	}
	defer release()

	var res *MovementResult
	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		purchase, err := findMovement(ctx, repos, req.MovementID)
		if err != nil {
			return err
		}
		if purchase.MovementType != inventory.MovementTypePurchase {
			return shared.ErrNotAPurchase
		}
		returns, err := repos.Movements().FindBySource(ctx, inventory.SourceTypeMovement, purchase.ID.String())
		if err != nil {
			return err
		}
		for _, r := range returns {
			if r.MovementType == inventory.MovementTypeReturn {
				return shared.Newf(shared.CodeAlreadyExists, "Purchase %s was already returned", purchase.ID)
			}
		}

		ing, err := findIngredient(ctx, repos, purchase.IngredientID)
		if err != nil {
			return err
		}
		loc := *purchase.ToLocationID
		item, err := existingStock(ctx, repos, ing.ID, loc, purchase.Quantity, shared.CodeInsufficientQuantity)
		if err != nil {
			return err
		}

		counter, err := purchaseCounterAccount(ctx, repos, purchase)
		if err != nil {
			return err
		}

		ret, err := inventory.NewMovement(ing.ID, &loc, nil, inventory.MovementTypeReturn, purchase.Quantity, req.Date)
		if err != nil {
			return err
		}
		ret.WithCost(purchase.UnitCostCents, purchase.TotalCostCents).
			WithSource(inventory.SourceTypeMovement, purchase.ID.String()).
			WithNotes(req.Notes)
		if err := repos.Movements().Create(ctx, ret); err != nil {
			return err
		}

		item.Consume(purchase.Quantity)
		// returns stay out of the purchase history, so the returned row
		// still counts toward the average
		if err := recomputePurchaseAverage(ctx, repos, item); err != nil {
			return err
		}
		if err := repos.Items().Save(ctx, item); err != nil {
			return err
		}

		entry, err := postMovementEntry(ctx, repos, ing, ret, counter)
		if err != nil {
			return err
		}
		res = &MovementResult{Movement: ret, Ingredient: ing, Items: []*inventory.InventoryItem{item}, Entry: entry}
		return nil
	})
	if err != nil {
		return nil, s.fail(span, err)
	}

	s.afterCommit(ctx, res)
	return res, nil
}

// DeletePurchase removes a purchase, its stock and its journal entry. The
// average is backed out approximately; quantities are restored exactly.
func (s *Service) DeletePurchase(ctx context.Context, movementID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "delete_purchase",
		telemetry.AttrMovementID, movementID.String(),
	)
	defer span.End()

	release, err := s.lockMovement(ctx, movementID)
	if err != nil {
		return s.fail(span, err)
	}
	defer release()

	var item *inventory.InventoryItem
	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		m, err := findMovement(ctx, repos, movementID)
		if err != nil {
			return err
		}
		if m.MovementType != inventory.MovementTypePurchase {
			return shared.ErrNotAPurchase
		}
		item, err = stockItem(ctx, repos, m.IngredientID, *m.ToLocationID)
		if err != nil {
			return err
		}
		item.SetAverageCost(inventory.RemoveFromAverage(item.QuantityOnHand, item.AvgCostPerUnitCents, m.Quantity, m.TotalCostCents))
		item.Adjust(-m.Quantity)
		if err := repos.Items().Save(ctx, item); err != nil {
			return err
		}
		if err := deleteMovementEntries(ctx, repos, m); err != nil {
			return err
		}
		return repos.Movements().Delete(ctx, m.ID)
	})
	if err != nil {
		return s.fail(span, err)
	}

	logger.L(ctx).Info("purchase deleted", zap.String("movement_id", movementID.String()))
	s.publish(ctx, shared.AggregateEvents(item)...)
	return nil
}

// UpdatePurchase edits a purchase's quantity, cost or date. Stock shifts by
// the quantity delta and the average is re-derived from purchase history.
func (s *Service) UpdatePurchase(ctx context.Context, req UpdatePurchaseRequest) (*MovementResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "update_purchase",
		telemetry.AttrMovementID, req.MovementID.String(),
		telemetry.AttrQuantity, req.Quantity,
		telemetry.AttrAmountCents, req.TotalCostCents,
	)
	defer span.End()
	defer s.observe(ctx, "update_purchase", time.Now())

	release, err := s.lockMovement(ctx, req.MovementID)
	if err != nil {
		return nil, s.fail(span, err)
	}
	defer release()

	var res *MovementResult
	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		m, err := findMovement(ctx, repos, req.MovementID)
		if err != nil {
			return err
		}
		if m.MovementType != inventory.MovementTypePurchase {
			return shared.ErrNotAPurchase
		}
		if req.PaidFromCode != "" {
			if _, err := ledger.ResolveAccounts(ctx, repos.Accounts(), req.PaidFromCode); err != nil {
				return err
			}
		}
		ing, err := findIngredient(ctx, repos, m.IngredientID)
		if err != nil {
			return err
		}
		item, err := stockItem(ctx, repos, m.IngredientID, *m.ToLocationID)
		if err != nil {
			return err
		}

		item.Adjust(req.Quantity - m.Quantity)
		m.Quantity = req.Quantity
		m.WithCost(inventory.UnitCost(req.TotalCostCents, req.Quantity), req.TotalCostCents)
		if !req.Date.IsZero() {
			m.MovementDate = shared.DateOnly(req.Date)
		}
		m.Touch()
		if err := repos.Movements().Save(ctx, m); err != nil {
			return err
		}
		if err := recomputePurchaseAverage(ctx, repos, item); err != nil {
			return err
		}
		if err := repos.Items().Save(ctx, item); err != nil {
			return err
		}

		entry, err := SyncMovementEntry(ctx, repos, ing, m, req.PaidFromCode)
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

// DeleteTransfer reverses a transfer: the destination backs the transferred
// value out of its average and the source takes the stock back at the
// transfer's unit cost.
func (s *Service) DeleteTransfer(ctx context.Context, movementID uuid.UUID) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "delete_transfer",
		telemetry.AttrMovementID, movementID.String(),
	)
	defer span.End()

	release, err := s.lockMovement(ctx, movementID)
	if err != nil {
		return s.fail(span, err)
	}
	defer release()

	var items []*inventory.InventoryItem
	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		m, err := findMovement(ctx, repos, movementID)
		if err != nil {
			return err
		}
		if m.MovementType != inventory.MovementTypeTransfer {
			return shared.ErrNotATransfer
		}
		src, dst, err := transferItems(ctx, repos, m)
		if err != nil {
			return err
		}
		reverseTransfer(src, dst, m)
		if err := saveItems(ctx, repos, src, dst); err != nil {
			return err
		}
		items = []*inventory.InventoryItem{src, dst}
		if err := deleteMovementEntries(ctx, repos, m); err != nil {
			return err
		}
		return repos.Movements().Delete(ctx, m.ID)
	})
	if err != nil {
		return s.fail(span, err)
	}

	logger.L(ctx).Info("transfer deleted", zap.String("movement_id", movementID.String()))
	s.publish(ctx, shared.AggregateEvents(items[0], items[1])...)
	return nil
}

// UpdateTransfer re-applies a transfer with a new quantity or date. The
// source must cover the new quantity once the old transfer is reversed.
func (s *Service) UpdateTransfer(ctx context.Context, req UpdateTransferRequest) (*MovementResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "update_transfer",
		telemetry.AttrMovementID, req.MovementID.String(),
		telemetry.AttrQuantity, req.Quantity,
	)
	defer span.End()
	defer s.observe(ctx, "update_transfer", time.Now())

	release, err := s.lockMovement(ctx, req.MovementID)
	if err != nil {
		return nil, s.fail(span, err)
	}
	defer release()

	var res *MovementResult
	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		m, err := findMovement(ctx, repos, req.MovementID)
		if err != nil {
			return err
		}
		if m.MovementType != inventory.MovementTypeTransfer {
			return shared.ErrNotATransfer
		}
		ing, err := findIngredient(ctx, repos, m.IngredientID)
		if err != nil {
			return err
		}
		src, dst, err := transferItems(ctx, repos, m)
		if err != nil {
			return err
		}

		reverseTransfer(src, dst, m)
		if !src.CanCover(req.Quantity) {
			return shared.Newf(shared.CodeInsufficientStock,
				"Insufficient stock: %d on hand, %d requested", src.QuantityOnHand, req.Quantity)
		}
		unit := src.EffectiveUnitCost(ing.CostPerUnitCents)
		src.Consume(req.Quantity)
		dst.TransferIn(req.Quantity, unit)

		m.Quantity = req.Quantity
		m.WithCost(unit, unit*req.Quantity)
		if !req.Date.IsZero() {
			m.MovementDate = shared.DateOnly(req.Date)
		}
		m.Touch()
		if err := repos.Movements().Save(ctx, m); err != nil {
			return err
		}
		if err := saveItems(ctx, repos, src, dst); err != nil {
			return err
		}

		entry, err := SyncMovementEntry(ctx, repos, ing, m, "")
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

func transferItems(ctx context.Context, repos uow.Repositories, m *inventory.Movement) (src, dst *inventory.InventoryItem, err error) {
	src, err = stockItem(ctx, repos, m.IngredientID, *m.FromLocationID)
	if err != nil {
		return nil, nil, err
	}
	dst, err = stockItem(ctx, repos, m.IngredientID, *m.ToLocationID)
	if err != nil {
		return nil, nil, err
	}
	return src, dst, nil
}

// reverseTransfer undoes a transfer on in-memory stock records
func reverseTransfer(src, dst *inventory.InventoryItem, m *inventory.Movement) {
	dst.SetAverageCost(inventory.RemoveFromAverage(dst.QuantityOnHand, dst.AvgCostPerUnitCents, m.Quantity, m.TotalCostCents))
	dst.Adjust(-m.Quantity)
	src.TransferIn(m.Quantity, m.UnitCostCents)
}

// purchaseCounterAccount returns the cash account credited by a purchase's
// entry, or Cash when the purchase posted none
func purchaseCounterAccount(ctx context.Context, repos uow.Repositories, purchase *inventory.Movement) (string, error) {
	entries, err := repos.Entries().FindByTypeAndReference(ctx, ledger.EntryTypePurchase, purchase.LedgerReference())
	if err != nil {
		return "", err
	}
	if len(entries) > 0 {
		code, err := counterAccountCode(ctx, repos, &entries[0], inventory.MovementTypePurchase)
		if err != nil {
			return "", err
		}
		if code != "" {
			return code, nil
		}
	}
	return ledger.CodeCash, nil
}
