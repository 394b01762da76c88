package ledger

import (
	"time"

	"github.com/google/uuid"
)

// CreateAccountRequest creates a chart-of-accounts entry
type CreateAccountRequest struct {
	Code          string `json:"code" validate:"required,max=20"`
	Name          string `json:"name" validate:"required,max=200"`
	Type          string `json:"type" validate:"required,oneof=asset liability equity revenue expense"`
	NormalBalance string `json:"normal_balance" validate:"omitempty,oneof=debit credit"`
	IsCash        bool   `json:"is_cash"`
}

// LineInput is one journal line. AccountCode is used when AccountID is empty.
type LineInput struct {
	AccountID   uuid.UUID `json:"account_id"`
	AccountCode string    `json:"account_code" validate:"required_without=AccountID"`
	DebitCents  int64     `json:"debit_cents" validate:"gte=0"`
	CreditCents int64     `json:"credit_cents" validate:"gte=0"`
	Description string    `json:"description" validate:"max=500"`
}

// PostEntryRequest posts a manual journal entry
type PostEntryRequest struct {
	EntryDate   time.Time   `json:"entry_date"`
	EntryType   string      `json:"entry_type" validate:"required,max=50"`
	Reference   string      `json:"reference" validate:"max=200"`
	Description string      `json:"description" validate:"max=500"`
	Lines       []LineInput `json:"lines" validate:"required,min=1,dive"`
}

// WithdrawalRequest records money the owner takes out of the business
type WithdrawalRequest struct {
	AmountCents  int64     `json:"amount_cents" validate:"gt=0"`
	PaidFromCode string    `json:"paid_from_code" validate:"required"`
	Date         time.Time `json:"date"`
	Note         string    `json:"note" validate:"max=500"`
}

// BalanceResponse is an account balance as of a date
type BalanceResponse struct {
	AccountID    uuid.UUID  `json:"account_id"`
	Code         string     `json:"code"`
	Name         string     `json:"name"`
	BalanceCents int64      `json:"balance_cents"`
	AsOf         *time.Time `json:"as_of,omitempty"`
}

// SeedResult summarizes SeedChartOfAccounts
type SeedResult struct {
	Created  []string `json:"created"`
	Existing int      `json:"existing"`
}
