package verification

import (
	"sort"

	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/inventory"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/ledger"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/order"
)

// cogsEntryTypes are the entry types that move inventory cost into expense
// or WIP; at most one per reference may exist
var cogsEntryTypes = map[string]bool{
	ledger.EntryTypeUsage:          true,
	ledger.EntryTypeOrderInPrep:    true,
	ledger.EntryTypeOrderDelivered: true,
	ledger.EntryTypeOrderCanceled:  true,
}

func checkInventoryQuantities(_ *Service, s *snapshot) *CheckResult {
	r := newResult(CheckInventoryQuantities)
	expected := s.expectedQuantities()
	seen := make(map[stockPair]bool, len(s.items))

	for i := range s.items {
		it := &s.items[i]
		pair := stockPair{it.IngredientID, it.LocationID}
		seen[pair] = true
		if want := expected[pair]; it.QuantityOnHand != want {
			r.issuef("stock record %s: quantity %d, movements sum to %d", it.ID, it.QuantityOnHand, want)
		}
		if !it.NegativeFlagConsistent() {
			r.issuef("stock record %s: negative flag %t with quantity %d", it.ID, it.NegativeStock, it.QuantityOnHand)
		}
	}
	for pair, want := range expected {
		if !seen[pair] && want != 0 {
			r.issuef("ingredient %s at location %s: no stock record, movements sum to %d", pair.ingredientID, pair.locationID, want)
		}
	}
	r.Stats["items"] = int64(len(s.items))
	r.Stats["movements"] = int64(len(s.movements))
	return r
}

// categoryDiscrepancies compares each category's valuation with its
// inventory account balance and returns the categories off by more than
// the tolerance, with valuation minus ledger
func categoryDiscrepancies(svc *Service, s *snapshot, r *CheckResult) map[inventory.Category]int64 {
	valuation := make(map[inventory.Category]int64)
	for i := range s.items {
		valuation[s.categoryOf(s.items[i].IngredientID)] += s.items[i].ValueCents()
	}
	out := make(map[inventory.Category]int64)
	for _, cat := range inventory.AllCategories() {
		code, _ := ledger.InventoryAccountFor(cat)
		booked := s.balance(code)
		if r != nil {
			r.Stats["valuation_"+cat.String()] = valuation[cat]
			r.Stats["ledger_"+cat.String()] = booked
		}
		diff := valuation[cat] - booked
		if abs(diff) > svc.costTolerance {
			out[cat] = diff
		}
	}
	return out
}

func checkInventoryCostAccounting(svc *Service, s *snapshot) *CheckResult {
	r := newResult(CheckInventoryCostAccounting)
	diffs := categoryDiscrepancies(svc, s, r)
	for _, cat := range inventory.AllCategories() {
		if diff, ok := diffs[cat]; ok {
			code, _ := ledger.InventoryAccountFor(cat)
			r.issuef("%s: valuation %d, account %s balance %d (difference %d)",
				cat, r.Stats["valuation_"+cat.String()], code, r.Stats["ledger_"+cat.String()], diff)
		}
	}
	return r
}

// miscostedMovement reports whether a consumption or transfer carries no
// usable cost
func miscostedMovement(m *inventory.Movement) bool {
	switch m.MovementType {
	case inventory.MovementTypeUsage, inventory.MovementTypeWriteOff, inventory.MovementTypeTransfer:
		return m.UnitCostCents == 0 || m.TotalCostCents != m.UnitCostCents*m.Quantity
	}
	return false
}

func checkMovementCosts(_ *Service, s *snapshot) *CheckResult {
	r := newResult(CheckMovementCosts)
	var checked int64
	for i := range s.movements {
		m := &s.movements[i]
		if !m.MovementType.IsConsumption() && m.MovementType != inventory.MovementTypeTransfer {
			continue
		}
		checked++
		if miscostedMovement(m) {
			r.issuef("movement %s (%s): unit cost %d, total %d for quantity %d",
				m.ID, m.MovementType, m.UnitCostCents, m.TotalCostCents, m.Quantity)
		}
	}
	r.Stats["checked"] = checked
	return r
}

// duplicateMovementGroups groups movements by duplicate key, keeping only
// groups with more than one member, each ordered oldest first
func duplicateMovementGroups(movements []inventory.Movement) [][]*inventory.Movement {
	groups := make(map[string][]*inventory.Movement)
	var keys []string
	for i := range movements {
		key := movements[i].DuplicateKey()
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], &movements[i])
	}
	var out [][]*inventory.Movement
	for _, key := range keys {
		g := groups[key]
		if len(g) < 2 {
			continue
		}
		sort.SliceStable(g, func(i, j int) bool {
			if !g[i].CreatedAt.Equal(g[j].CreatedAt) {
				return g[i].CreatedAt.Before(g[j].CreatedAt)
			}
			return g[i].ID.String() < g[j].ID.String()
		})
		out = append(out, g)
	}
	return out
}

func checkDuplicateMovements(_ *Service, s *snapshot) *CheckResult {
	r := newResult(CheckDuplicateMovements)
	groups := duplicateMovementGroups(s.movements)
	var extra int64
	for _, g := range groups {
		extra += int64(len(g) - 1)
		r.issuef("%d identical %s movements of %d on %s (kept %s)",
			len(g), g[0].MovementType, g[0].Quantity, g[0].MovementDate.Format("2006-01-02"), g[0].ID)
	}
	r.Stats["groups"] = int64(len(groups))
	r.Stats["duplicates"] = extra
	return r
}

// duplicateEntryGroups groups COGS-type entries by (type, reference),
// keeping groups with more than one entry, each ordered oldest first
func duplicateEntryGroups(entries []ledger.JournalEntry) [][]*ledger.JournalEntry {
	type key struct{ entryType, reference string }
	groups := make(map[key][]*ledger.JournalEntry)
	var keys []key
	for i := range entries {
		e := &entries[i]
		if !cogsEntryTypes[e.EntryType] {
			continue
		}
		k := key{e.EntryType, e.Reference}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], e)
	}
	var out [][]*ledger.JournalEntry
	for _, k := range keys {
		g := groups[k]
		if len(g) < 2 {
			continue
		}
		sort.SliceStable(g, func(i, j int) bool {
			if !g[i].CreatedAt.Equal(g[j].CreatedAt) {
				return g[i].CreatedAt.Before(g[j].CreatedAt)
			}
			return g[i].ID.String() < g[j].ID.String()
		})
		out = append(out, g)
	}
	return out
}

func checkDuplicateCOGSEntries(_ *Service, s *snapshot) *CheckResult {
	r := newResult(CheckDuplicateCOGSEntries)
	groups := duplicateEntryGroups(s.entries)
	var extra int64
	for _, g := range groups {
		extra += int64(len(g) - 1)
		r.issuef("%d %s entries for %q", len(g), g[0].EntryType, g[0].Reference)
	}
	r.Stats["groups"] = int64(len(groups))
	r.Stats["duplicates"] = extra
	return r
}

func checkJournalEntriesBalanced(_ *Service, s *snapshot) *CheckResult {
	r := newResult(CheckJournalEntriesBalanced)
	for i := range s.entries {
		e := &s.entries[i]
		if !e.IsBalanced() {
			r.issuef("entry %s (%s %q): debits %d, credits %d",
				e.ID, e.EntryType, e.Reference, e.TotalDebits(), e.TotalCredits())
		}
	}
	r.Stats["entries"] = int64(len(s.entries))
	return r
}

func checkWIPBalance(_ *Service, s *snapshot) *CheckResult {
	r := newResult(CheckWIPBalance)
	var expected, inPrep int64
	for i := range s.orders {
		o := &s.orders[i]
		if o.Status != order.StatusInPrep {
			continue
		}
		inPrep++
		expected += s.inPrepTotal(o)
	}
	booked := s.balance(ledger.CodeWorkInProgress)
	r.Stats["orders_in_prep"] = inPrep
	r.Stats["expected"] = expected
	r.Stats["ledger"] = booked
	if booked != expected {
		r.issuef("WIP balance %d, orders in preparation staged %d", booked, expected)
	}
	return r
}

// missingClosingEntry reports which closing entry type a finished order
// lacks, or "" when it has what it needs
func missingClosingEntry(s *snapshot, o *order.Order) string {
	switch o.Status {
	case order.StatusDelivered:
		needs := s.inPrepTotal(o) > 0 || (!o.IsGift && o.TotalCents() > 0)
		if needs && len(s.entriesFor(ledger.EntryTypeOrderDelivered, o.Reference())) == 0 {
			return ledger.EntryTypeOrderDelivered
		}
	case order.StatusCanceled:
		if s.inPrepTotal(o) > 0 && len(s.entriesFor(ledger.EntryTypeOrderCanceled, o.Reference())) == 0 {
			return ledger.EntryTypeOrderCanceled
		}
	}
	return ""
}

func checkOrderWIPConsistency(_ *Service, s *snapshot) *CheckResult {
	r := newResult(CheckOrderWIPConsistency)
	var finished int64
	for i := range s.orders {
		o := &s.orders[i]
		if !o.Status.IsTerminal() {
			continue
		}
		finished++
		if missing := missingClosingEntry(s, o); missing != "" {
			r.issuef("%s is %s but has no %s entry", o.Reference(), o.Status, missing)
		}
	}
	r.Stats["finished_orders"] = finished
	return r
}

// misdirectedWithdrawal reports whether a withdrawal debits Owner's Equity
func misdirectedWithdrawal(s *snapshot, e *ledger.JournalEntry) bool {
	equity := s.accounts.ID(ledger.CodeOwnersEquity)
	return e.EntryType == ledger.EntryTypeWithdrawal && e.DebitsTo(equity) > 0
}

func checkWithdrawalAccounts(_ *Service, s *snapshot) *CheckResult {
	r := newResult(CheckWithdrawalAccounts)
	var withdrawals int64
	for i := range s.entries {
		e := &s.entries[i]
		if e.EntryType != ledger.EntryTypeWithdrawal {
			continue
		}
		withdrawals++
		if misdirectedWithdrawal(s, e) {
			r.issuef("withdrawal %s on %s debits Owner's Equity instead of Owner's Drawings",
				e.ID, e.EntryDate.Format("2006-01-02"))
		}
	}
	r.Stats["withdrawals"] = withdrawals
	return r
}

// giftEntryCarriesSales reports whether a gift's delivered entry touches
// revenue, receivables or COGS
func giftEntryCarriesSales(s *snapshot, e *ledger.JournalEntry) bool {
	for _, l := range e.Lines {
		code := s.accounts.CodeOf(l.AccountID)
		if code == ledger.CodeSales || code == ledger.CodeAccountsReceivable || ledger.IsCOGSAccount(code) {
			return true
		}
	}
	return false
}

func checkGiftOrderAccounting(_ *Service, s *snapshot) *CheckResult {
	r := newResult(CheckGiftOrderAccounting)
	var gifts int64
	for i := range s.orders {
		o := &s.orders[i]
		if !o.IsGift || o.Status != order.StatusDelivered {
			continue
		}
		gifts++
		for _, e := range s.entriesFor(ledger.EntryTypeOrderDelivered, o.Reference()) {
			if giftEntryCarriesSales(s, e) {
				r.issuef("gift %s delivered entry %s books revenue or COGS", o.Reference(), e.ID)
			}
		}
	}
	r.Stats["delivered_gifts"] = gifts
	return r
}

func checkARBalance(_ *Service, s *snapshot) *CheckResult {
	r := newResult(CheckARBalance)
	var expected int64
	for i := range s.orders {
		o := &s.orders[i]
		if o.Status != order.StatusDelivered || o.IsGift {
			continue
		}
		expected += o.TotalCents() - s.paid(o.ID, "")
	}
	booked := s.balance(ledger.CodeAccountsReceivable)
	r.Stats["expected"] = expected
	r.Stats["ledger"] = booked
	if booked != expected {
		r.issuef("Accounts Receivable balance %d, delivered orders leave %d outstanding", booked, expected)
	}
	return r
}

// depositMismatch compares the deposits an order collected with what its
// delivered entry applied from Customer Deposits
func depositMismatch(s *snapshot, o *order.Order) (applied, collected int64, entry *ledger.JournalEntry) {
	collected = s.paid(o.ID, order.PaymentKindDeposit)
	entries := s.entriesFor(ledger.EntryTypeOrderDelivered, o.Reference())
	if len(entries) == 0 {
		return 0, collected, nil
	}
	entry = entries[0]
	return entry.DebitsTo(s.accounts.ID(ledger.CodeCustomerDeposits)), collected, entry
}

func checkCustomerDeposits(_ *Service, s *snapshot) *CheckResult {
	r := newResult(CheckCustomerDeposits)
	var held int64
	for i := range s.orders {
		o := &s.orders[i]
		if o.Status != order.StatusDelivered || o.IsGift {
			held += s.paid(o.ID, order.PaymentKindDeposit)
			continue
		}
		applied, collected, entry := depositMismatch(s, o)
		if entry != nil && applied != collected {
			r.issuef("%s applied %d of deposits but collected %d", o.Reference(), applied, collected)
		}
	}
	booked := s.balance(ledger.CodeCustomerDeposits)
	r.Stats["expected"] = held
	r.Stats["ledger"] = booked
	if booked != held {
		r.issuef("Customer Deposits balance %d, undelivered orders hold %d", booked, held)
	}
	return r
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
