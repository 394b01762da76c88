package bridge

import (
	"time"

	"github.com/google/uuid"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/inventory"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/ledger"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/order"
)

// TransitionRequest moves an order to a new status. A zero Date posts
// in_prep and canceled entries today and delivered entries on the order's
// delivery date.
type TransitionRequest struct {
	OrderID uuid.UUID `json:"order_id" validate:"required"`
	Status  string    `json:"status" validate:"required,oneof=new_order in_prep delivered canceled"`
	Date    time.Time `json:"date"`
}

// PaymentRequest records money received against an order
type PaymentRequest struct {
	OrderID     uuid.UUID `json:"order_id" validate:"required"`
	AmountCents int64     `json:"amount_cents" validate:"gt=0"`
	PaidToCode  string    `json:"paid_to_code" validate:"required"`
	Date        time.Time `json:"date"`
}

// TransitionResult is what a transition wrote. Re-applying a status that
// already has its postings returns an empty result.
type TransitionResult struct {
	Order     *order.Order
	Changed   bool
	Movements []*inventory.Movement
	Entries   []*ledger.JournalEntry
}

// PaymentResult is a recorded payment and its journal entry
type PaymentResult struct {
	Payment *order.Payment
	Entry   *ledger.JournalEntry
}

// AccountAmount is an amount posted to one account
type AccountAmount struct {
	Code  string
	Cents int64
}
