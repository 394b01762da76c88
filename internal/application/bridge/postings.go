package bridge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	appinventory "github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/inventory"
	appledger "github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/ledger"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/uow"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/inventory"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/ledger"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/order"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
)

// Consumption aggregates what an order draws from stock, one line per
// ingredient in first-seen order
func Consumption(ctx context.Context, repos uow.Repositories, o *order.Order) ([]order.Consumption, error) {
	overrides, err := repos.Orders().FindOverrides(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	var recipe []order.RecipeLine
	if len(overrides) == 0 {
		recipe, err = repos.Products().FindRecipe(ctx, o.ProductID)
		if err != nil {
			return nil, err
		}
	}

	lines := order.ConsumptionFor(o, recipe, overrides)
	out := make([]order.Consumption, 0, len(lines))
	index := make(map[uuid.UUID]int, len(lines))
	for _, c := range lines {
		if i, ok := index[c.IngredientID]; ok {
			out[i].Quantity += c.Quantity
			continue
		}
		index[c.IngredientID] = len(out)
		out = append(out, c)
	}
	return out, nil
}

// OrderMovements returns the usage movements an order's preparation created
func OrderMovements(ctx context.Context, repos uow.Repositories, o *order.Order) ([]inventory.Movement, error) {
	all, err := repos.Movements().FindBySource(ctx, inventory.SourceTypeOrder, o.SourceID())
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, m := range all {
		if m.MovementType == inventory.MovementTypeUsage {
			out = append(out, m)
		}
	}
	return out, nil
}

// inPrepPosting is the outcome of staging an order into WIP
type inPrepPosting struct {
	movements []*inventory.Movement
	items     []*inventory.InventoryItem
	entry     *ledger.JournalEntry
}

// postInPrep consumes the order's ingredients at the prep location and
// stages their cost in WIP. Movements already recorded for the order are
// reused, and nothing is posted when the in_prep entry exists.
func postInPrep(ctx context.Context, repos uow.Repositories, inv *appinventory.Service, o *order.Order, date time.Time) (*inPrepPosting, error) {
	exists, err := repos.Entries().ExistsByTypeAndReference(ctx, ledger.EntryTypeOrderInPrep, o.Reference())
	if err != nil || exists {
		return &inPrepPosting{}, err
	}

	res := &inPrepPosting{}
	movements, err := OrderMovements(ctx, repos, o)
	if err != nil {
		return nil, err
	}
	if len(movements) == 0 {
		consumption, err := Consumption(ctx, repos, o)
		if err != nil {
			return nil, err
		}
		for _, c := range consumption {
			mr, err := inv.ConsumeInScope(ctx, repos, appinventory.ConsumeRequest{
				IngredientID: c.IngredientID,
				LocationID:   o.PrepLocationID,
				Quantity:     c.Quantity,
				Date:         date,
				SourceType:   inventory.SourceTypeOrder,
				SourceID:     o.SourceID(),
				Notes:        o.Reference(),
			})
			if err != nil {
				return nil, fmt.Errorf("failed to consume ingredient for %s: %w", o.Reference(), err)
			}
			res.movements = append(res.movements, mr.Movement)
			res.items = append(res.items, mr.Items...)
			movements = append(movements, *mr.Movement)
		}
	}

	credits, total, err := inventoryCredits(ctx, repos, movements)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return res, nil
	}

	codes := []string{ledger.CodeWorkInProgress}
	for _, c := range credits {
		codes = append(codes, c.Code)
	}
	accounts, err := ledger.ResolveAccounts(ctx, repos.Accounts(), codes...)
	if err != nil {
		return nil, err
	}
	desc := fmt.Sprintf("%s in preparation", o.Reference())
	lines := []ledger.JournalLine{ledger.Debit(accounts.ID(ledger.CodeWorkInProgress), total, desc)}
	for _, c := range credits {
		lines = append(lines, ledger.Credit(accounts.ID(c.Code), c.Cents, desc))
	}
	res.entry, err = appledger.PostInScope(ctx, repos, date, ledger.EntryTypeOrderInPrep, o.Reference(), desc, lines)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// inventoryCredits totals movement cost per inventory account, sorted by code
func inventoryCredits(ctx context.Context, repos uow.Repositories, movements []inventory.Movement) ([]AccountAmount, int64, error) {
	categories := make(map[uuid.UUID]inventory.Category)
	byCode := make(map[string]int64)
	var total int64
	for _, m := range movements {
		cat, ok := categories[m.IngredientID]
		if !ok {
			ing, err := repos.Ingredients().FindByID(ctx, m.IngredientID)
			if err != nil {
				return nil, 0, err
			}
			cat = ing.Category
			categories[m.IngredientID] = cat
		}
		code, err := ledger.InventoryAccountFor(cat)
		if err != nil {
			return nil, 0, err
		}
		byCode[code] += m.TotalCostCents
		total += m.TotalCostCents
	}
	return sortedAmounts(byCode), total, nil
}

// InPrepCredits returns what the order's in_prep entries credited, per
// account, and their total. This is the amount staged in WIP.
func InPrepCredits(ctx context.Context, repos uow.Repositories, o *order.Order) ([]AccountAmount, int64, error) {
	entries, err := repos.Entries().FindByTypeAndReference(ctx, ledger.EntryTypeOrderInPrep, o.Reference())
	if err != nil || len(entries) == 0 {
		return nil, 0, err
	}
	accounts, err := ledger.LoadAccountSet(ctx, repos.Accounts())
	if err != nil {
		return nil, 0, err
	}
	// duplicates are the verifier's concern; only the first entry counts
	byCode := make(map[string]int64)
	var total int64
	for _, l := range entries[0].Lines {
		if l.CreditCents == 0 {
			continue
		}
		byCode[accounts.CodeOf(l.AccountID)] += l.CreditCents
		total += l.CreditCents
	}
	return sortedAmounts(byCode), total, nil
}

// DepositsCollected sums the deposits received for an order
func DepositsCollected(ctx context.Context, repos uow.Repositories, orderID uuid.UUID) (int64, error) {
	payments, err := repos.Payments().FindByOrder(ctx, orderID)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, p := range payments {
		if p.Kind == order.PaymentKindDeposit {
			total += p.AmountCents
		}
	}
	return total, nil
}

// BuildDeliveredLines builds the lines an order's delivery posts:
//
//	Dr AR / Cr Sales                for price + shipping
//	Dr Customer Deposits / Cr AR    for deposits collected
//	Dr COGS / Cr WIP                for the amount staged at in_prep
//
// A gift posts only Dr Gifts & Samples / Cr WIP.
func BuildDeliveredLines(ctx context.Context, repos uow.Repositories, o *order.Order) ([]ledger.JournalLine, error) {
	credits, wip, err := InPrepCredits(ctx, repos, o)
	if err != nil {
		return nil, err
	}
	accounts, err := ledger.LoadAccountSet(ctx, repos.Accounts())
	if err != nil {
		return nil, err
	}
	id := func(code string) (uuid.UUID, error) { return accounts.Require(code) }
	desc := fmt.Sprintf("%s delivered", o.Reference())

	var lines []ledger.JournalLine
	add := func(debitCode, creditCode string, cents int64) error {
		if cents == 0 {
			return nil
		}
		dr, err := id(debitCode)
		if err != nil {
			return err
		}
		cr, err := id(creditCode)
		if err != nil {
			return err
		}
		lines = append(lines, ledger.Debit(dr, cents, desc), ledger.Credit(cr, cents, desc))
		return nil
	}

	if o.IsGift {
		if err := add(ledger.CodeGiftsSamples, ledger.CodeWorkInProgress, wip); err != nil {
			return nil, err
		}
		return lines, nil
	}

	if err := add(ledger.CodeAccountsReceivable, ledger.CodeSales, o.TotalCents()); err != nil {
		return nil, err
	}
	deposits, err := DepositsCollected(ctx, repos, o.ID)
	if err != nil {
		return nil, err
	}
	if err := add(ledger.CodeCustomerDeposits, ledger.CodeAccountsReceivable, deposits); err != nil {
		return nil, err
	}
	for _, c := range credits {
		cogs, err := ledger.COGSAccountForInventory(c.Code)
		if err != nil {
			return nil, err
		}
		if err := add(cogs, ledger.CodeWorkInProgress, c.Cents); err != nil {
			return nil, err
		}
	}
	return lines, nil
}

// PostDeliveredInScope posts the order_delivered entry unless one exists
func PostDeliveredInScope(ctx context.Context, repos uow.Repositories, o *order.Order, date time.Time) (*ledger.JournalEntry, error) {
	exists, err := repos.Entries().ExistsByTypeAndReference(ctx, ledger.EntryTypeOrderDelivered, o.Reference())
	if err != nil || exists {
		return nil, err
	}
	lines, err := BuildDeliveredLines(ctx, repos, o)
	if err != nil || len(lines) == 0 {
		return nil, err
	}
	return appledger.PostInScope(ctx, repos, date, ledger.EntryTypeOrderDelivered, o.Reference(),
		fmt.Sprintf("%s delivered", o.Reference()), lines)
}

// PostCanceledInScope relieves the WIP staged for a canceled order to
// Waste & Shrinkage, unless the order_canceled entry exists. An order
// canceled before preparation has nothing staged and posts nothing.
func PostCanceledInScope(ctx context.Context, repos uow.Repositories, o *order.Order, date time.Time) (*ledger.JournalEntry, error) {
	exists, err := repos.Entries().ExistsByTypeAndReference(ctx, ledger.EntryTypeOrderCanceled, o.Reference())
	if err != nil || exists {
		return nil, err
	}
	_, wip, err := InPrepCredits(ctx, repos, o)
	if err != nil || wip == 0 {
		return nil, err
	}
	accounts, err := ledger.ResolveAccounts(ctx, repos.Accounts(), ledger.CodeWasteShrinkage, ledger.CodeWorkInProgress)
	if err != nil {
		return nil, err
	}
	desc := fmt.Sprintf("%s canceled", o.Reference())
	return appledger.PostInScope(ctx, repos, date, ledger.EntryTypeOrderCanceled, o.Reference(), desc, []ledger.JournalLine{
		ledger.Debit(accounts.ID(ledger.CodeWasteShrinkage), wip, desc),
		ledger.Credit(accounts.ID(ledger.CodeWorkInProgress), wip, desc),
	})
}

func findOrder(ctx context.Context, repos uow.Repositories, id uuid.UUID) (*order.Order, error) {
	o, err := repos.Orders().FindByID(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.Newf(shared.CodeNotFound, "Order %s not found", id)
	}
	return o, err
}

func sortedAmounts(byCode map[string]int64) []AccountAmount {
	out := make([]AccountAmount, 0, len(byCode))
	for code, cents := range byCode {
		if cents == 0 {
			continue
		}
		out = append(out, AccountAmount{Code: code, Cents: cents})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}
