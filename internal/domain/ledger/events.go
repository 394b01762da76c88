package ledger

import (
	"github.com/google/uuid"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
)

const (
	AggregateTypeJournalEntry = "JournalEntry"
	EventTypeEntryPosted      = "ledger.entry_posted"
)

// EntryPostedEvent is raised after a journal entry commits
type EntryPostedEvent struct {
	shared.BaseDomainEvent
	EntryID     uuid.UUID `json:"entry_id"`
	EntryType   string    `json:"entry_type"`
	Reference   string    `json:"reference"`
	AmountCents int64     `json:"amount_cents"`
}

// NewEntryPostedEvent creates a new EntryPostedEvent
func NewEntryPostedEvent(e *JournalEntry) *EntryPostedEvent {
	return &EntryPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEntryPosted, AggregateTypeJournalEntry, e.ID),
		EntryID:         e.ID,
		EntryType:       e.EntryType,
		Reference:       e.Reference,
		AmountCents:     e.TotalDebits(),
	}
}
