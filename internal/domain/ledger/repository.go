package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AccountRepository defines the interface for account persistence
type AccountRepository interface {
	// FindByID finds an account by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)

	// FindByCode finds an account by its unique code
	FindByCode(ctx context.Context, code string) (*Account, error)

	// FindAll returns all accounts ordered by code
	FindAll(ctx context.Context) ([]Account, error)

	// Save creates or updates an account
	Save(ctx context.Context, account *Account) error
}

// LineTotals holds summed debits and credits
type LineTotals struct {
	Debits  int64
	Credits int64
}

// JournalEntryRepository defines the interface for journal persistence.
// Entries are always loaded with their lines, ordered by date, creation
// time, then ID.
type JournalEntryRepository interface {
	// FindByID finds an entry by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*JournalEntry, error)

	// Create inserts an entry together with its lines
	Create(ctx context.Context, entry *JournalEntry) error

	// ReplaceLines deletes the entry's lines and inserts the given ones
	ReplaceLines(ctx context.Context, entry *JournalEntry) error

	// Delete removes an entry and its lines
	Delete(ctx context.Context, id uuid.UUID) error

	// FindAll returns every entry
	FindAll(ctx context.Context) ([]JournalEntry, error)

	// FindByTypeAndReference returns entries matching both tags
	FindByTypeAndReference(ctx context.Context, entryType, reference string) ([]JournalEntry, error)

	// FindByReference returns every entry carrying a reference
	FindByReference(ctx context.Context, reference string) ([]JournalEntry, error)

	// FindByType returns every entry of a type
	FindByType(ctx context.Context, entryType string) ([]JournalEntry, error)

	// FindByDateRange returns entries dated within [from, to]
	FindByDateRange(ctx context.Context, from, to time.Time) ([]JournalEntry, error)

	// ExistsByTypeAndReference reports whether a matching entry exists
	ExistsByTypeAndReference(ctx context.Context, entryType, reference string) (bool, error)

	// AccountTotals sums the lines posted to an account by entries dated on or
	// before asOf. A nil asOf sums everything.
	AccountTotals(ctx context.Context, accountID uuid.UUID, asOf *time.Time) (LineTotals, error)
}
