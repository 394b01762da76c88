package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
)

// Status is an order's position in its lifecycle
type Status string

const (
	StatusNew       Status = "new_order"
	StatusInPrep    Status = "in_prep"
	StatusDelivered Status = "delivered"
	StatusCanceled  Status = "canceled"
)

// IsValid returns true if the status is known
func (s Status) IsValid() bool {
	switch s {
	case StatusNew, StatusInPrep, StatusDelivered, StatusCanceled:
		return true
	}
	return false
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// IsTerminal returns true once no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCanceled
}

var allowedTransitions = map[Status][]Status{
	StatusNew:    {StatusInPrep, StatusCanceled},
	StatusInPrep: {StatusDelivered, StatusCanceled},
}

// Order is the slice of an order record the ledger engine consumes.
// Order CRUD lives with the orders collaborator.
type Order struct {
	shared.BaseAggregateRoot
	Number         int64     `gorm:"not null;uniqueIndex"`
	CustomerName   string    `gorm:"type:varchar(200)"`
	Status         Status    `gorm:"type:varchar(20);not null;index"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null"`
	Quantity       int64     `gorm:"not null;default:1"`
	PrepLocationID uuid.UUID `gorm:"type:uuid;not null"`
	DeliveryDate   time.Time `gorm:"not null"`
	PriceCents     int64     `gorm:"not null;default:0"`
	ShippingCents  int64     `gorm:"not null;default:0"`
	IsGift         bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates an order in the new_order state
func NewOrder(number int64, productID, prepLocationID uuid.UUID, deliveryDate time.Time, priceCents, shippingCents int64) (*Order, error) {
	if number <= 0 {
		return nil, shared.NewDomainError("INVALID_ORDER_NUMBER", "Order number must be positive")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if prepLocationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Prep location ID cannot be empty")
	}
	if priceCents < 0 || shippingCents < 0 {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Price and shipping cannot be negative")
	}
	return &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		Status:            StatusNew,
		ProductID:         productID,
		Quantity:          1,
		PrepLocationID:    prepLocationID,
		DeliveryDate:      shared.DateOnly(deliveryDate),
		PriceCents:        priceCents,
		ShippingCents:     shippingCents,
	}, nil
}

// Reference is the journal reference shared by every entry about this order
func (o *Order) Reference() string {
	return Reference(o.Number)
}

// Reference formats the journal reference for an order number
func Reference(number int64) string {
	return fmt.Sprintf("Order #%d", number)
}

// SourceID is the movement source ID for consumption driven by this order
func (o *Order) SourceID() string {
	return o.ID.String()
}

// TotalCents returns the amount billed to the customer
func (o *Order) TotalCents() int64 {
	return o.PriceCents + o.ShippingCents
}

// CanTransitionTo reports whether moving to next is allowed
func (o *Order) CanTransitionTo(next Status) bool {
	for _, s := range allowedTransitions[o.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// TransitionTo moves the order to next. Re-applying the current status is a
// no-op and reports changed=false.
func (o *Order) TransitionTo(next Status) (changed bool, err error) {
	if !next.IsValid() {
		return false, shared.Newf(shared.CodeInvalidStateTransition, "Unknown order status %q", next)
	}
	if o.Status == next {
		return false, nil
	}
	if !o.CanTransitionTo(next) {
		return false, shared.Newf(shared.CodeInvalidStateTransition, "Order #%d cannot move from %s to %s", o.Number, o.Status, next)
	}
	prev := o.Status
	o.Status = next
	o.UpdatedAt = time.Now()
	o.IncrementVersion()
	o.AddDomainEvent(NewStatusChangedEvent(o, prev))
	return true, nil
}
