package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/uow"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/inventory"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/ledger"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
)

// EntryTypeFor returns the journal entry type a movement type posts
func EntryTypeFor(t inventory.MovementType) string {
	switch t {
	case inventory.MovementTypePurchase:
		return ledger.EntryTypePurchase
	case inventory.MovementTypeReturn:
		return ledger.EntryTypePurchaseReturn
	case inventory.MovementTypeUsage:
		return ledger.EntryTypeUsage
	case inventory.MovementTypeWriteOff:
		return ledger.EntryTypeWriteOff
	case inventory.MovementTypeTransfer:
		return ledger.EntryTypeTransfer
	}
	return ""
}

// MovementEntryLines builds the journal lines a movement posts at its
// recorded cost. counterCode is the cash account for purchases and returns
// and is ignored otherwise. A movement without cost yields no lines.
//
//	purchase   Dr inventory        Cr counter
//	return     Dr counter          Cr inventory
//	usage      Dr COGS             Cr inventory
//	write_off  Dr waste            Cr inventory
//	transfer   Dr inventory (to)   Cr inventory (from)
func MovementEntryLines(ctx context.Context, repos uow.Repositories, ing *inventory.Ingredient, m *inventory.Movement, counterCode string) ([]ledger.JournalLine, error) {
	amount := m.TotalCostCents
	if amount == 0 {
		return nil, nil
	}

	invCode, err := ledger.InventoryAccountFor(ing.Category)
	if err != nil {
		return nil, err
	}
	var debitCode, creditCode string
	switch m.MovementType {
	case inventory.MovementTypePurchase:
		debitCode, creditCode = invCode, counterCode
	case inventory.MovementTypeReturn:
		debitCode, creditCode = counterCode, invCode
	case inventory.MovementTypeUsage:
		cogsCode, err := ledger.COGSAccountFor(ing.Category)
		if err != nil {
			return nil, err
		}
		debitCode, creditCode = cogsCode, invCode
	case inventory.MovementTypeWriteOff:
		debitCode, creditCode = ledger.CodeWasteShrinkage, invCode
	case inventory.MovementTypeTransfer:
		debitCode, creditCode = invCode, invCode
	default:
		return nil, shared.Newf("INVALID_MOVEMENT_TYPE", "Unknown movement type %q", m.MovementType)
	}
	if debitCode == "" || creditCode == "" {
		return nil, shared.Newf(shared.CodeValidationFailed, "Validation failed: paid_from_code: is required")
	}

	accounts, err := ledger.ResolveAccounts(ctx, repos.Accounts(), debitCode, creditCode)
	if err != nil {
		return nil, err
	}
	desc := describe(ing, m)
	return []ledger.JournalLine{
		ledger.Debit(accounts.ID(debitCode), amount, desc),
		ledger.Credit(accounts.ID(creditCode), amount, desc),
	}, nil
}

// postMovementEntry posts the movement's entry, or nothing when it carries no cost
func postMovementEntry(ctx context.Context, repos uow.Repositories, ing *inventory.Ingredient, m *inventory.Movement, counterCode string) (*ledger.JournalEntry, error) {
	lines, err := MovementEntryLines(ctx, repos, ing, m, counterCode)
	if err != nil || len(lines) == 0 {
		return nil, err
	}
	entry, err := ledger.NewJournalEntry(m.MovementDate, EntryTypeFor(m.MovementType), m.LedgerReference(), describe(ing, m), lines)
	if err != nil {
		return nil, err
	}
	if err := repos.Entries().Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create journal entry: %w", err)
	}
	return entry, nil
}

// SyncMovementEntry makes the movement's linked entry match its current
// cost: lines are replaced, created when missing, or the entry is deleted
// when the movement no longer carries cost
func SyncMovementEntry(ctx context.Context, repos uow.Repositories, ing *inventory.Ingredient, m *inventory.Movement, counterCode string) (*ledger.JournalEntry, error) {
	existing, err := repos.Entries().FindByTypeAndReference(ctx, EntryTypeFor(m.MovementType), m.LedgerReference())
	if err != nil {
		return nil, err
	}
	if counterCode == "" && len(existing) > 0 {
		counterCode, err = counterAccountCode(ctx, repos, &existing[0], m.MovementType)
		if err != nil {
			return nil, err
		}
	}
	lines, err := MovementEntryLines(ctx, repos, ing, m, counterCode)
	if err != nil {
		return nil, err
	}

	switch {
	case len(existing) == 0 && len(lines) == 0:
		return nil, nil
	case len(existing) == 0:
		return postMovementEntry(ctx, repos, ing, m, counterCode)
	case len(lines) == 0:
		for _, e := range existing {
			if err := repos.Entries().Delete(ctx, e.ID); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}

	entry := &existing[0]
	if err := entry.ReplaceLines(lines); err != nil {
		return nil, err
	}
	entry.EntryDate = m.MovementDate
	if err := repos.Entries().ReplaceLines(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// deleteMovementEntries removes every entry referencing the movement
func deleteMovementEntries(ctx context.Context, repos uow.Repositories, m *inventory.Movement) error {
	entries, err := repos.Entries().FindByReference(ctx, m.LedgerReference())
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := repos.Entries().Delete(ctx, e.ID); err != nil && !errors.Is(err, shared.ErrNotFound) {
			return err
		}
	}
	return nil
}

// counterAccountCode finds the cash account a purchase (credit side) or a
// return (debit side) entry used
func counterAccountCode(ctx context.Context, repos uow.Repositories, e *ledger.JournalEntry, t inventory.MovementType) (string, error) {
	for _, l := range e.Lines {
		if t == inventory.MovementTypePurchase && l.CreditCents == 0 {
			continue
		}
		if t == inventory.MovementTypeReturn && l.DebitCents == 0 {
			continue
		}
		acc, err := repos.Accounts().FindByID(ctx, l.AccountID)
		if err != nil {
			return "", err
		}
		if !ledger.IsInventoryAccount(acc.Code) {
			return acc.Code, nil
		}
	}
	return "", nil
}

func describe(ing *inventory.Ingredient, m *inventory.Movement) string {
	return fmt.Sprintf("%s %d %s %s", m.MovementType, m.Quantity, ing.Unit, ing.Name)
}
