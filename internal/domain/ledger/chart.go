package ledger

import (
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/inventory"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
)

// Fixed account codes the engine posts to
const (
	CodeCash                 = "1000"
	CodeBank                 = "1010"
	CodeAccountsReceivable   = "1100"
	CodeInventoryIngredients = "1200"
	CodeInventoryPacking     = "1210"
	CodeInventoryKitchen     = "1220"
	CodeInventoryOther       = "1230"
	CodeWorkInProgress       = "1300"
	CodeCustomerDeposits     = "2100"
	CodeOwnersEquity         = "3000"
	CodeOwnersDrawings       = "3100"
	CodeSales                = "4000"
	CodeCOGSIngredients      = "5000"
	CodeCOGSPacking          = "5010"
	CodeCOGSKitchen          = "5020"
	CodeCOGSOther            = "5030"
	CodeWasteShrinkage       = "5100"
	CodeGiftsSamples         = "5200"
)

type categoryAccounts struct {
	inventory string
	cogs      string
}

var categoryAccountTable = map[inventory.Category]categoryAccounts{
	inventory.CategoryIngredients: {CodeInventoryIngredients, CodeCOGSIngredients},
	inventory.CategoryPacking:     {CodeInventoryPacking, CodeCOGSPacking},
	inventory.CategoryKitchen:     {CodeInventoryKitchen, CodeCOGSKitchen},
	inventory.CategoryOther:       {CodeInventoryOther, CodeCOGSOther},
}

// InventoryAccountFor returns the inventory asset account code for a category
func InventoryAccountFor(c inventory.Category) (string, error) {
	a, ok := categoryAccountTable[c]
	if !ok {
		return "", shared.Newf("INVALID_CATEGORY", "No inventory account for category %q", c)
	}
	return a.inventory, nil
}

// COGSAccountFor returns the cost-of-goods-sold account code for a category
func COGSAccountFor(c inventory.Category) (string, error) {
	a, ok := categoryAccountTable[c]
	if !ok {
		return "", shared.Newf("INVALID_CATEGORY", "No COGS account for category %q", c)
	}
	return a.cogs, nil
}

// AccountSpec describes an account in the standard chart
type AccountSpec struct {
	Code          string
	Name          string
	Type          AccountType
	NormalBalance NormalBalance
	IsCash        bool
}

// StandardChart returns the chart of accounts the engine expects to exist
func StandardChart() []AccountSpec {
	return []AccountSpec{
		{CodeCash, "Cash", AccountTypeAsset, NormalBalanceDebit, true},
		{CodeBank, "Bank", AccountTypeAsset, NormalBalanceDebit, true},
		{CodeAccountsReceivable, "Accounts Receivable", AccountTypeAsset, NormalBalanceDebit, false},
		{CodeInventoryIngredients, "Inventory: Ingredients", AccountTypeAsset, NormalBalanceDebit, false},
		{CodeInventoryPacking, "Inventory: Packing", AccountTypeAsset, NormalBalanceDebit, false},
		{CodeInventoryKitchen, "Inventory: Kitchen", AccountTypeAsset, NormalBalanceDebit, false},
		{CodeInventoryOther, "Inventory: Other", AccountTypeAsset, NormalBalanceDebit, false},
		{CodeWorkInProgress, "Work In Progress", AccountTypeAsset, NormalBalanceDebit, false},
		{CodeCustomerDeposits, "Customer Deposits", AccountTypeLiability, NormalBalanceCredit, false},
		{CodeOwnersEquity, "Owner's Equity", AccountTypeEquity, NormalBalanceCredit, false},
		{CodeOwnersDrawings, "Owner's Drawings", AccountTypeEquity, NormalBalanceDebit, false},
		{CodeSales, "Sales", AccountTypeRevenue, NormalBalanceCredit, false},
		{CodeCOGSIngredients, "COGS: Ingredients", AccountTypeExpense, NormalBalanceDebit, false},
		{CodeCOGSPacking, "COGS: Packing", AccountTypeExpense, NormalBalanceDebit, false},
		{CodeCOGSKitchen, "COGS: Kitchen", AccountTypeExpense, NormalBalanceDebit, false},
		{CodeCOGSOther, "COGS: Other", AccountTypeExpense, NormalBalanceDebit, false},
		{CodeWasteShrinkage, "Waste & Shrinkage", AccountTypeExpense, NormalBalanceDebit, false},
		{CodeGiftsSamples, "Gifts & Samples", AccountTypeExpense, NormalBalanceDebit, false},
	}
}

// COGSAccountForInventory maps an inventory account code to the COGS account
// of the same category
func COGSAccountForInventory(inventoryCode string) (string, error) {
	for _, a := range categoryAccountTable {
		if a.inventory == inventoryCode {
			return a.cogs, nil
		}
	}
	return "", shared.Newf("INVALID_ACCOUNT", "Account %s is not an inventory account", inventoryCode)
}

// IsInventoryAccount reports whether code is one of the category inventory accounts
func IsInventoryAccount(code string) bool {
	_, err := COGSAccountForInventory(code)
	return err == nil
}

// IsCOGSAccount reports whether code is one of the category COGS accounts
func IsCOGSAccount(code string) bool {
	for _, a := range categoryAccountTable {
		if a.cogs == code {
			return true
		}
	}
	return false
}
