package order

import (
	"github.com/google/uuid"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
)

const (
	AggregateTypeOrder     = "Order"
	EventTypeStatusChanged = "order.status_changed"
)

// StatusChangedEvent is raised when an order moves to a new status
type StatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID `json:"order_id"`
	Number  int64     `json:"number"`
	From    Status    `json:"from"`
	To      Status    `json:"to"`
}

// NewStatusChangedEvent creates a new StatusChangedEvent
func NewStatusChangedEvent(o *Order, from Status) *StatusChangedEvent {
	return &StatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStatusChanged, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		Number:          o.Number,
		From:            from,
		To:              o.Status,
	}
}
