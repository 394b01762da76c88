package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
)

// Entry types written by the engine. EntryType is free-form; these are the
// tags other components look up by.
const (
	EntryTypePurchase       = "purchase"
	EntryTypePurchaseReturn = "purchase_return"
	EntryTypeUsage          = "usage"
	EntryTypeTransfer       = "transfer"
	EntryTypeWriteOff       = "write_off"
	EntryTypeOrderInPrep    = "order_in_prep"
	EntryTypeOrderDelivered = "order_delivered"
	EntryTypeOrderCanceled  = "order_canceled"
	EntryTypeOrderDeposit   = "order_deposit"
	EntryTypeOrderPayment   = "order_payment"
	EntryTypeWithdrawal     = "withdrawal"
	EntryTypeReconciliation = "reconciliation"
)

// JournalEntry is a balanced double-entry posting
type JournalEntry struct {
	shared.BaseEntity
	EntryDate   time.Time     `gorm:"not null;index"`
	EntryType   string        `gorm:"type:varchar(50);not null;index:idx_journal_entry_type_ref,priority:1"`
	Reference   string        `gorm:"type:varchar(200);index:idx_journal_entry_type_ref,priority:2"`
	Description string        `gorm:"type:varchar(500)"`
	Lines       []JournalLine `gorm:"foreignKey:EntryID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (JournalEntry) TableName() string {
	return "journal_entries"
}

// JournalLine is one side of a journal entry. Exactly one of DebitCents or
// CreditCents is normally non-zero.
type JournalLine struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	EntryID     uuid.UUID `gorm:"type:uuid;not null;index"`
	LineNo      int       `gorm:"not null"`
	AccountID   uuid.UUID `gorm:"type:uuid;not null;index"`
	DebitCents  int64     `gorm:"not null;default:0"`
	CreditCents int64     `gorm:"not null;default:0"`
	Description string    `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (JournalLine) TableName() string {
	return "journal_lines"
}

// Debit builds a debit line
func Debit(accountID uuid.UUID, cents int64, description string) JournalLine {
	return JournalLine{AccountID: accountID, DebitCents: cents, Description: description}
}

// Credit builds a credit line
func Credit(accountID uuid.UUID, cents int64, description string) JournalLine {
	return JournalLine{AccountID: accountID, CreditCents: cents, Description: description}
}

// NewJournalEntry creates an entry after checking its lines balance.
// Lines are not auto-balanced; callers must supply a balanced set.
func NewJournalEntry(entryDate time.Time, entryType, reference, description string, lines []JournalLine) (*JournalEntry, error) {
	if entryType == "" {
		return nil, shared.NewDomainError("INVALID_ENTRY_TYPE", "Entry type cannot be empty")
	}
	if entryDate.IsZero() {
		entryDate = time.Now()
	}

	entry := &JournalEntry{
		BaseEntity:  shared.NewBaseEntity(),
		EntryDate:   shared.DateOnly(entryDate),
		EntryType:   entryType,
		Reference:   reference,
		Description: description,
	}
	if err := entry.ReplaceLines(lines); err != nil {
		return nil, err
	}
	return entry, nil
}

// ReplaceLines swaps the entry's lines wholesale
func (e *JournalEntry) ReplaceLines(lines []JournalLine) error {
	if err := ValidateLines(lines); err != nil {
		return err
	}
	out := make([]JournalLine, len(lines))
	for i, l := range lines {
		l.ID = uuid.New()
		l.EntryID = e.ID
		l.LineNo = i + 1
		out[i] = l
	}
	e.Lines = out
	e.UpdatedAt = time.Now()
	return nil
}

// ValidateLines checks a line set: at least one line, no negative amounts,
// and debits equal credits
func ValidateLines(lines []JournalLine) error {
	if len(lines) == 0 {
		return shared.NewDomainError(shared.CodeUnbalancedEntry, "Journal entry requires at least one line")
	}
	var debits, credits int64
	for _, l := range lines {
		if l.AccountID == uuid.Nil {
			return shared.NewDomainError("INVALID_ACCOUNT", "Journal line requires an account")
		}
		if l.DebitCents < 0 || l.CreditCents < 0 {
			return shared.NewDomainError("INVALID_AMOUNT", "Journal line amounts cannot be negative")
		}
		debits += l.DebitCents
		credits += l.CreditCents
	}
	if debits != credits {
		return shared.Newf(shared.CodeUnbalancedEntry, "Journal entry is unbalanced: debits %d, credits %d", debits, credits)
	}
	return nil
}

// TotalDebits returns the sum of debit cents
func (e *JournalEntry) TotalDebits() int64 {
	var total int64
	for _, l := range e.Lines {
		total += l.DebitCents
	}
	return total
}

// TotalCredits returns the sum of credit cents
func (e *JournalEntry) TotalCredits() int64 {
	var total int64
	for _, l := range e.Lines {
		total += l.CreditCents
	}
	return total
}

// IsBalanced reports whether debits equal credits
func (e *JournalEntry) IsBalanced() bool {
	return e.TotalDebits() == e.TotalCredits()
}

// DebitsTo sums debit cents posted to an account in this entry
func (e *JournalEntry) DebitsTo(accountID uuid.UUID) int64 {
	var total int64
	for _, l := range e.Lines {
		if l.AccountID == accountID {
			total += l.DebitCents
		}
	}
	return total
}

// CreditsTo sums credit cents posted to an account in this entry
func (e *JournalEntry) CreditsTo(accountID uuid.UUID) int64 {
	var total int64
	for _, l := range e.Lines {
		if l.AccountID == accountID {
			total += l.CreditCents
		}
	}
	return total
}

// Touches reports whether any line posts to the account
func (e *JournalEntry) Touches(accountID uuid.UUID) bool {
	for _, l := range e.Lines {
		if l.AccountID == accountID {
			return true
		}
	}
	return false
}

// ReversedLines returns the lines with debit and credit swapped
func (e *JournalEntry) ReversedLines() []JournalLine {
	out := make([]JournalLine, len(e.Lines))
	for i, l := range e.Lines {
		out[i] = JournalLine{
			AccountID:   l.AccountID,
			DebitCents:  l.CreditCents,
			CreditCents: l.DebitCents,
			Description: l.Description,
		}
	}
	return out
}
