package ledger

import (
	"strings"

	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
)

// AccountType classifies an account on the balance sheet or income statement
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// IsValid returns true if the account type is valid
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// DefaultNormalBalance returns the side on which the account type usually grows
func (t AccountType) DefaultNormalBalance() NormalBalance {
	switch t {
	case AccountTypeAsset, AccountTypeExpense:
		return NormalBalanceDebit
	default:
		return NormalBalanceCredit
	}
}

// NormalBalance is the side (debit or credit) that increases an account
type NormalBalance string

const (
	NormalBalanceDebit  NormalBalance = "debit"
	NormalBalanceCredit NormalBalance = "credit"
)

// IsValid returns true if the normal balance is valid
func (n NormalBalance) IsValid() bool {
	return n == NormalBalanceDebit || n == NormalBalanceCredit
}

// Account is a ledger account in the chart of accounts
type Account struct {
	shared.BaseEntity
	Code          string        `gorm:"type:varchar(20);not null;uniqueIndex"`
	Name          string        `gorm:"type:varchar(200);not null"`
	Type          AccountType   `gorm:"type:varchar(20);not null"`
	NormalBalance NormalBalance `gorm:"type:varchar(10);not null"`
	IsCash        bool          `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (Account) TableName() string {
	return "accounts"
}

// NewAccount creates a new account. An empty normal balance defaults from the type.
func NewAccount(code, name string, accountType AccountType, normal NormalBalance, isCash bool) (*Account, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Account code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Account name cannot be empty")
	}
	if !accountType.IsValid() {
		return nil, shared.Newf("INVALID_ACCOUNT_TYPE", "Unknown account type %q", accountType)
	}
	if normal == "" {
		normal = accountType.DefaultNormalBalance()
	}
	if !normal.IsValid() {
		return nil, shared.Newf("INVALID_NORMAL_BALANCE", "Unknown normal balance %q", normal)
	}

	return &Account{
		BaseEntity:    shared.NewBaseEntity(),
		Code:          code,
		Name:          name,
		Type:          accountType,
		NormalBalance: normal,
		IsCash:        isCash,
	}, nil
}

// Normalize converts raw debit and credit totals into a balance signed by
// the account's normal side
func (a *Account) Normalize(debits, credits int64) int64 {
	if a.NormalBalance == NormalBalanceCredit {
		return credits - debits
	}
	return debits - credits
}
