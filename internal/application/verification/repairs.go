package verification

import (
	"context"
	"errors"
	"fmt"

	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/bridge"
	appinventory "github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/inventory"
	appledger "github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/ledger"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/uow"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/inventory"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/ledger"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/order"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
)

// repairInventoryQuantities resets every stock record to its movement sum
// and creates records missing for pairs that have movements
func (s *Service) repairInventoryQuantities(ctx context.Context) []RepairAction {
	const check = CheckInventoryQuantities
	return s.inScope(ctx, check, func(repos uow.Repositories) ([]RepairAction, error) {
		snap, err := loadSnapshot(ctx, repos)
		if err != nil {
			return nil, err
		}
		expected := snap.expectedQuantities()
		var actions []RepairAction

		seen := make(map[stockPair]bool, len(snap.items))
		for i := range snap.items {
			it := &snap.items[i]
			pair := stockPair{it.IngredientID, it.LocationID}
			seen[pair] = true
			want := expected[pair]
			if it.QuantityOnHand == want && it.NegativeFlagConsistent() {
				continue
			}
			before := it.QuantityOnHand
			it.SetQuantity(want)
			if err := repos.Items().Save(ctx, it); err != nil {
				return actions, err
			}
			actions = append(actions, applied(check, "set_quantity", "stock record %s: %d -> %d", it.ID, before, want))
		}

		for pair, want := range expected {
			if seen[pair] || want == 0 {
				continue
			}
			item, err := inventory.NewInventoryItem(pair.ingredientID, pair.locationID)
			if err != nil {
				return actions, err
			}
			item.SetQuantity(want)
			purchases, err := repos.Movements().FindPurchases(ctx, pair.ingredientID, pair.locationID)
			if err != nil {
				return actions, err
			}
			item.SetAverageCost(inventory.PurchaseAverage(purchases))
			if err := repos.Items().Save(ctx, item); err != nil {
				return actions, err
			}
			actions = append(actions, applied(check, "create_stock_record",
				"ingredient %s at location %s: quantity %d", pair.ingredientID, pair.locationID, want))
		}
		return actions, nil
	})
}

// repairInventoryCostAccounting removes duplicates first, then books what
// remains of each category's difference against Waste & Shrinkage
func (s *Service) repairInventoryCostAccounting(ctx context.Context) []RepairAction {
	const check = CheckInventoryCostAccounting
	actions := s.repairDuplicateMovements(ctx)
	actions = append(actions, s.repairDuplicateCOGSEntries(ctx)...)

	return append(actions, s.inScope(ctx, check, func(repos uow.Repositories) ([]RepairAction, error) {
		snap, err := loadSnapshot(ctx, repos)
		if err != nil {
			return nil, err
		}
		var out []RepairAction
		diffs := categoryDiscrepancies(s, snap, nil)
		for _, cat := range inventory.AllCategories() {
			diff, ok := diffs[cat]
			if !ok {
				continue
			}
			code, err := ledger.InventoryAccountFor(cat)
			if err != nil {
				return out, err
			}
			accounts, err := ledger.ResolveAccounts(ctx, repos.Accounts(), code, ledger.CodeWasteShrinkage)
			if err != nil {
				return out, err
			}
			inv, waste := accounts.ID(code), accounts.ID(ledger.CodeWasteShrinkage)
			desc := fmt.Sprintf("Inventory reconciliation: %s", cat)
			lines := []ledger.JournalLine{ledger.Debit(inv, diff, desc), ledger.Credit(waste, diff, desc)}
			if diff < 0 {
				lines = []ledger.JournalLine{ledger.Debit(waste, -diff, desc), ledger.Credit(inv, -diff, desc)}
			}
			entry, err := appledger.PostInScope(ctx, repos, s.now(), ledger.EntryTypeReconciliation,
				"Reconciliation "+cat.String(), desc, lines)
			if err != nil {
				return out, err
			}
			out = append(out, applied(check, "post_reconciliation", "entry %s adjusts account %s by %d", entry.ID, code, diff))
		}
		return out, nil
	})...)
}

// repairMovementCosts backfills the cost of movements recorded without
// one: the purchase average as of the movement date, then the overall
// purchase average, then the ingredient's default cost
func (s *Service) repairMovementCosts(ctx context.Context) []RepairAction {
	const check = CheckMovementCosts
	return s.inScope(ctx, check, func(repos uow.Repositories) ([]RepairAction, error) {
		snap, err := loadSnapshot(ctx, repos)
		if err != nil {
			return nil, err
		}
		var actions []RepairAction
		for i := range snap.movements {
			m := &snap.movements[i]
			if !miscostedMovement(m) {
				continue
			}
			ing, ok := snap.ingredients[m.IngredientID]
			if !ok {
				actions = append(actions, skipped(check, "backfill_cost", "movement %s: ingredient %s missing", m.ID, m.IngredientID))
				continue
			}
			unit := m.UnitCostCents
			if unit == 0 {
				if unit, err = backfillUnitCost(ctx, repos, ing, m); err != nil {
					return actions, err
				}
			}
			if unit == 0 {
				actions = append(actions, skipped(check, "backfill_cost", "movement %s: no purchase history or default cost", m.ID))
				continue
			}

			m.WithCost(unit, unit*m.Quantity)
			m.Touch()
			if err := repos.Movements().Save(ctx, m); err != nil {
				return actions, err
			}
			if !m.IsOrderConsumption() {
				if _, err := appinventory.SyncMovementEntry(ctx, repos, ing, m, ""); err != nil {
					return actions, err
				}
			}
			actions = append(actions, applied(check, "backfill_cost", "movement %s: %d x %d = %d", m.ID, m.Quantity, unit, m.TotalCostCents))
		}
		return actions, nil
	})
}

func backfillUnitCost(ctx context.Context, repos uow.Repositories, ing *inventory.Ingredient, m *inventory.Movement) (int64, error) {
	asOf := m.MovementDate
	purchases, err := repos.Movements().FindPurchasesByIngredient(ctx, ing.ID, &asOf)
	if err != nil {
		return 0, err
	}
	if avg := inventory.PurchaseAverage(purchases); avg > 0 {
		return avg, nil
	}
	purchases, err = repos.Movements().FindPurchasesByIngredient(ctx, ing.ID, nil)
	if err != nil {
		return 0, err
	}
	if avg := inventory.PurchaseAverage(purchases); avg > 0 {
		return avg, nil
	}
	return ing.CostPerUnitCents, nil
}

// repairDuplicateMovements keeps the oldest movement of each duplicate
// group and removes the rest with their stock effect and journal entries
func (s *Service) repairDuplicateMovements(ctx context.Context) []RepairAction {
	const check = CheckDuplicateMovements
	return s.inScope(ctx, check, func(repos uow.Repositories) ([]RepairAction, error) {
		snap, err := loadSnapshot(ctx, repos)
		if err != nil {
			return nil, err
		}
		var actions []RepairAction
		for _, group := range duplicateMovementGroups(snap.movements) {
			for _, dup := range group[1:] {
				if err := removeMovement(ctx, repos, dup); err != nil {
					return actions, err
				}
				actions = append(actions, applied(check, "remove_duplicate",
					"movement %s duplicates %s", dup.ID, group[0].ID))
			}
		}
		return actions, nil
	})
}

// removeMovement deletes a movement, its entries and its stock effect. A
// removed purchase re-derives the destination's average from the purchases
// that remain.
func removeMovement(ctx context.Context, repos uow.Repositories, m *inventory.Movement) error {
	entries, err := repos.Entries().FindByReference(ctx, m.LedgerReference())
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := repos.Entries().Delete(ctx, e.ID); err != nil {
			return err
		}
	}
	if err := repos.Movements().Delete(ctx, m.ID); err != nil {
		return err
	}

	for _, loc := range m.Touches() {
		item, err := repos.Items().FindByIngredientAndLocation(ctx, m.IngredientID, loc)
		if errors.Is(err, shared.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		item.Adjust(-m.SignedQuantityAt(loc))
		if m.MovementType == inventory.MovementTypePurchase {
			purchases, err := repos.Movements().FindPurchases(ctx, m.IngredientID, loc)
			if err != nil {
				return err
			}
			item.SetAverageCost(inventory.PurchaseAverage(purchases))
		}
		if err := repos.Items().Save(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// repairDuplicateCOGSEntries keeps the oldest entry per (type, reference)
func (s *Service) repairDuplicateCOGSEntries(ctx context.Context) []RepairAction {
	const check = CheckDuplicateCOGSEntries
	return s.inScope(ctx, check, func(repos uow.Repositories) ([]RepairAction, error) {
		snap, err := loadSnapshot(ctx, repos)
		if err != nil {
			return nil, err
		}
		var actions []RepairAction
		for _, group := range duplicateEntryGroups(snap.entries) {
			for _, dup := range group[1:] {
				if err := repos.Entries().Delete(ctx, dup.ID); err != nil {
					return actions, err
				}
				actions = append(actions, applied(check, "delete_entry",
					"%s entry %s for %q duplicates %s", dup.EntryType, dup.ID, dup.Reference, group[0].ID))
			}
		}
		return actions, nil
	})
}

// repairOrderWIPConsistency posts the closing entry finished orders lack
func (s *Service) repairOrderWIPConsistency(ctx context.Context) []RepairAction {
	const check = CheckOrderWIPConsistency
	return s.inScope(ctx, check, func(repos uow.Repositories) ([]RepairAction, error) {
		snap, err := loadSnapshot(ctx, repos)
		if err != nil {
			return nil, err
		}
		var actions []RepairAction
		for i := range snap.orders {
			o := &snap.orders[i]
			var entry *ledger.JournalEntry
			switch missingClosingEntry(snap, o) {
			case ledger.EntryTypeOrderDelivered:
				entry, err = bridge.PostDeliveredInScope(ctx, repos, o, o.DeliveryDate)
			case ledger.EntryTypeOrderCanceled:
				entry, err = bridge.PostCanceledInScope(ctx, repos, o, s.now())
			default:
				continue
			}
			if err != nil {
				return actions, err
			}
			if entry == nil {
				actions = append(actions, skipped(check, "post_closing_entry", "%s: nothing to post", o.Reference()))
				continue
			}
			actions = append(actions, applied(check, "post_closing_entry", "%s: posted %s entry %s", o.Reference(), entry.EntryType, entry.ID))
		}
		return actions, nil
	})
}

// repairWithdrawalAccounts moves withdrawal debits from Owner's Equity to
// Owner's Drawings
func (s *Service) repairWithdrawalAccounts(ctx context.Context) []RepairAction {
	const check = CheckWithdrawalAccounts
	return s.inScope(ctx, check, func(repos uow.Repositories) ([]RepairAction, error) {
		snap, err := loadSnapshot(ctx, repos)
		if err != nil {
			return nil, err
		}
		drawings, err := snap.accounts.Require(ledger.CodeOwnersDrawings)
		if err != nil {
			return nil, err
		}
		equity := snap.accounts.ID(ledger.CodeOwnersEquity)

		var actions []RepairAction
		for i := range snap.entries {
			e := &snap.entries[i]
			if !misdirectedWithdrawal(snap, e) {
				continue
			}
			lines := make([]ledger.JournalLine, len(e.Lines))
			for j, l := range e.Lines {
				if l.AccountID == equity && l.DebitCents > 0 {
					l.AccountID = drawings
				}
				lines[j] = l
			}
			if err := replaceLines(ctx, repos, e, lines); err != nil {
				return actions, err
			}
			actions = append(actions, applied(check, "rewrite_lines", "withdrawal %s now debits Owner's Drawings", e.ID))
		}
		return actions, nil
	})
}

// repairGiftOrderAccounting rebuilds gift deliveries that booked revenue
func (s *Service) repairGiftOrderAccounting(ctx context.Context) []RepairAction {
	const check = CheckGiftOrderAccounting
	return s.inScope(ctx, check, func(repos uow.Repositories) ([]RepairAction, error) {
		snap, err := loadSnapshot(ctx, repos)
		if err != nil {
			return nil, err
		}
		var actions []RepairAction
		for i := range snap.orders {
			o := &snap.orders[i]
			if !o.IsGift || o.Status != order.StatusDelivered {
				continue
			}
			for _, e := range snap.entriesFor(ledger.EntryTypeOrderDelivered, o.Reference()) {
				if !giftEntryCarriesSales(snap, e) {
					continue
				}
				action, err := rebuildDelivered(ctx, repos, o, e)
				if err != nil {
					return actions, err
				}
				actions = append(actions, applied(check, action, "%s entry %s", o.Reference(), e.ID))
			}
		}
		return actions, nil
	})
}

// repairCustomerDeposits rebuilds delivered entries that applied the wrong
// amount of deposits. A mismatch in the overall balance is left for review.
func (s *Service) repairCustomerDeposits(ctx context.Context) []RepairAction {
	const check = CheckCustomerDeposits
	return s.inScope(ctx, check, func(repos uow.Repositories) ([]RepairAction, error) {
		snap, err := loadSnapshot(ctx, repos)
		if err != nil {
			return nil, err
		}
		var actions []RepairAction
		for i := range snap.orders {
			o := &snap.orders[i]
			if o.Status != order.StatusDelivered || o.IsGift {
				continue
			}
			got, collected, entry := depositMismatch(snap, o)
			if entry == nil || got == collected {
				continue
			}
			action, err := rebuildDelivered(ctx, repos, o, entry)
			if err != nil {
				return actions, err
			}
			actions = append(actions, applied(check, action, "%s: deposits applied %d -> %d", o.Reference(), got, collected))
		}

		after, err := loadSnapshot(ctx, repos)
		if err != nil {
			return actions, err
		}
		if res := checkCustomerDeposits(s, after); !res.Ok() {
			actions = append(actions, skipped(check, "review_balance",
				"Customer Deposits balance %d, undelivered orders hold %d", res.Stats["ledger"], res.Stats["expected"]))
		}
		return actions, nil
	})
}

// rebuildDelivered rewrites a delivered entry from the order's current
// state, deleting it when there is nothing left to post
func rebuildDelivered(ctx context.Context, repos uow.Repositories, o *order.Order, e *ledger.JournalEntry) (string, error) {
	lines, err := bridge.BuildDeliveredLines(ctx, repos, o)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "delete_entry", repos.Entries().Delete(ctx, e.ID)
	}
	return "rebuild_entry", replaceLines(ctx, repos, e, lines)
}

func replaceLines(ctx context.Context, repos uow.Repositories, e *ledger.JournalEntry, lines []ledger.JournalLine) error {
	if err := e.ReplaceLines(lines); err != nil {
		return err
	}
	return repos.Entries().ReplaceLines(ctx, e)
}
