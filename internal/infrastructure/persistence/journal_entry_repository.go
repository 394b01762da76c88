package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/ledger"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
	"gorm.io/gorm"
)

// GormJournalEntryRepository implements JournalEntryRepository using GORM
type GormJournalEntryRepository struct {
	db *gorm.DB
}

// NewGormJournalEntryRepository creates a new GormJournalEntryRepository
func NewGormJournalEntryRepository(db *gorm.DB) *GormJournalEntryRepository {
	return &GormJournalEntryRepository{db: db}
}

func (r *GormJournalEntryRepository) query(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("line_no") }).
		Order("entry_date, created_at, id")
}

// FindByID finds an entry by its ID
func (r *GormJournalEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.JournalEntry, error) {
	var e ledger.JournalEntry
	if err := r.query(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &e, nil
}

// Create inserts an entry together with its lines
func (r *GormJournalEntryRepository) Create(ctx context.Context, e *ledger.JournalEntry) error {
	return r.db.WithContext(ctx).Create(e).Error
}

// ReplaceLines deletes the entry's lines and inserts the given ones. The
// entry date follows e.EntryDate.
func (r *GormJournalEntryRepository) ReplaceLines(ctx context.Context, e *ledger.JournalEntry) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("entry_id = ?", e.ID).Delete(&ledger.JournalLine{}).Error; err != nil {
		return err
	}
	if len(e.Lines) > 0 {
		if err := db.Create(&e.Lines).Error; err != nil {
			return err
		}
	}
	return db.Model(&ledger.JournalEntry{}).
		Where("id = ?", e.ID).
		Updates(map[string]any{"entry_date": e.EntryDate, "updated_at": e.UpdatedAt}).Error
}

// Delete removes an entry and its lines
func (r *GormJournalEntryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("entry_id = ?", id).Delete(&ledger.JournalLine{}).Error; err != nil {
		return err
	}
	return deleteResult(db.Delete(&ledger.JournalEntry{}, "id = ?", id))
}

// FindAll returns every entry
func (r *GormJournalEntryRepository) FindAll(ctx context.Context) ([]ledger.JournalEntry, error) {
	var entries []ledger.JournalEntry
	if err := r.query(ctx).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindByTypeAndReference returns entries matching both tags
func (r *GormJournalEntryRepository) FindByTypeAndReference(ctx context.Context, entryType, reference string) ([]ledger.JournalEntry, error) {
	var entries []ledger.JournalEntry
	if err := r.query(ctx).
		Where("entry_type = ? AND reference = ?", entryType, reference).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindByReference returns every entry carrying a reference
func (r *GormJournalEntryRepository) FindByReference(ctx context.Context, reference string) ([]ledger.JournalEntry, error) {
	var entries []ledger.JournalEntry
	if err := r.query(ctx).Where("reference = ?", reference).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindByType returns every entry of a type
func (r *GormJournalEntryRepository) FindByType(ctx context.Context, entryType string) ([]ledger.JournalEntry, error) {
	var entries []ledger.JournalEntry
	if err := r.query(ctx).Where("entry_type = ?", entryType).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// FindByDateRange returns entries dated within [from, to]
func (r *GormJournalEntryRepository) FindByDateRange(ctx context.Context, from, to time.Time) ([]ledger.JournalEntry, error) {
	var entries []ledger.JournalEntry
	if err := r.query(ctx).
		Where("entry_date >= ? AND entry_date <= ?", shared.DateOnly(from), shared.DateOnly(to)).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ExistsByTypeAndReference reports whether a matching entry exists
func (r *GormJournalEntryRepository) ExistsByTypeAndReference(ctx context.Context, entryType, reference string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&ledger.JournalEntry{}).
		Where("entry_type = ? AND reference = ?", entryType, reference).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// AccountTotals sums the lines posted to an account up to and including asOf
func (r *GormJournalEntryRepository) AccountTotals(ctx context.Context, accountID uuid.UUID, asOf *time.Time) (ledger.LineTotals, error) {
	var totals struct {
		Debits  int64
		Credits int64
	}
	q := r.db.WithContext(ctx).
		Table("journal_lines").
		Select("COALESCE(SUM(journal_lines.debit_cents), 0) AS debits, COALESCE(SUM(journal_lines.credit_cents), 0) AS credits").
		Joins("JOIN journal_entries ON journal_entries.id = journal_lines.entry_id").
		Where("journal_lines.account_id = ?", accountID)
	if asOf != nil {
		q = q.Where("journal_entries.entry_date <= ?", shared.DateOnly(*asOf))
	}
	if err := q.Scan(&totals).Error; err != nil {
		return ledger.LineTotals{}, err
	}
	return ledger.LineTotals{Debits: totals.Debits, Credits: totals.Credits}, nil
}

var _ ledger.JournalEntryRepository = (*GormJournalEntryRepository)(nil)
