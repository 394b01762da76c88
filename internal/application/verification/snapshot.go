package verification

import (
	"context"

	"github.com/google/uuid"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/uow"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/inventory"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/ledger"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/order"
)

// snapshot is a read of everything the checks look at, taken in one unit
// of work so that every check sees the same state
type snapshot struct {
	accounts    *ledger.AccountSet
	ingredients map[uuid.UUID]*inventory.Ingredient
	items       []inventory.InventoryItem
	movements   []inventory.Movement
	entries     []ledger.JournalEntry
	orders      []order.Order
	payments    map[uuid.UUID][]order.Payment

	totals map[uuid.UUID]ledger.LineTotals
}

func loadSnapshot(ctx context.Context, repos uow.Repositories) (*snapshot, error) {
	s := &snapshot{
		ingredients: make(map[uuid.UUID]*inventory.Ingredient),
		payments:    make(map[uuid.UUID][]order.Payment),
		totals:      make(map[uuid.UUID]ledger.LineTotals),
	}
	var err error
	if s.accounts, err = ledger.LoadAccountSet(ctx, repos.Accounts()); err != nil {
		return nil, err
	}
	ingredients, err := repos.Ingredients().FindAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range ingredients {
		s.ingredients[ingredients[i].ID] = &ingredients[i]
	}
	if s.items, err = repos.Items().FindAll(ctx); err != nil {
		return nil, err
	}
	if s.movements, err = repos.Movements().FindAll(ctx); err != nil {
		return nil, err
	}
	if s.entries, err = repos.Entries().FindAll(ctx); err != nil {
		return nil, err
	}
	s.orders, err = repos.Orders().FindByStatus(ctx,
		order.StatusNew, order.StatusInPrep, order.StatusDelivered, order.StatusCanceled)
	if err != nil {
		return nil, err
	}
	for _, o := range s.orders {
		payments, err := repos.Payments().FindByOrder(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		s.payments[o.ID] = payments
	}

	for _, e := range s.entries {
		for _, l := range e.Lines {
			t := s.totals[l.AccountID]
			t.Debits += l.DebitCents
			t.Credits += l.CreditCents
			s.totals[l.AccountID] = t
		}
	}
	return s, nil
}

// balance returns an account's normalized balance over every entry
func (s *snapshot) balance(code string) int64 {
	acc, ok := s.accounts.ByCode(code)
	if !ok {
		return 0
	}
	t := s.totals[acc.ID]
	return acc.Normalize(t.Debits, t.Credits)
}

// entriesFor returns the entries of a type carrying a reference, oldest first
func (s *snapshot) entriesFor(entryType, reference string) []*ledger.JournalEntry {
	var out []*ledger.JournalEntry
	for i := range s.entries {
		if s.entries[i].EntryType == entryType && s.entries[i].Reference == reference {
			out = append(out, &s.entries[i])
		}
	}
	return out
}

// inPrepTotal is the amount the order's first in_prep entry staged in WIP
func (s *snapshot) inPrepTotal(o *order.Order) int64 {
	entries := s.entriesFor(ledger.EntryTypeOrderInPrep, o.Reference())
	if len(entries) == 0 {
		return 0
	}
	return entries[0].TotalCredits()
}

// paid sums an order's payments of a kind, or of every kind when kind is empty
func (s *snapshot) paid(orderID uuid.UUID, kind order.PaymentKind) int64 {
	var total int64
	for _, p := range s.payments[orderID] {
		if kind == "" || p.Kind == kind {
			total += p.AmountCents
		}
	}
	return total
}

func (s *snapshot) categoryOf(ingredientID uuid.UUID) inventory.Category {
	if ing, ok := s.ingredients[ingredientID]; ok {
		return ing.Category
	}
	return ""
}

// stockPair identifies one stock record
type stockPair struct {
	ingredientID uuid.UUID
	locationID   uuid.UUID
}

// expectedQuantities sums signed movement quantities per pair
func (s *snapshot) expectedQuantities() map[stockPair]int64 {
	out := make(map[stockPair]int64)
	for i := range s.movements {
		m := &s.movements[i]
		for _, loc := range m.Touches() {
			out[stockPair{m.IngredientID, loc}] += m.SignedQuantityAt(loc)
		}
	}
	return out
}
