package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
)

// PaymentKind distinguishes money received before and after delivery
type PaymentKind string

const (
	PaymentKindDeposit PaymentKind = "deposit"
	PaymentKindPayment PaymentKind = "payment"
)

// Payment is money received against an order
type Payment struct {
	shared.BaseEntity
	OrderID        uuid.UUID   `gorm:"type:uuid;not null;index"`
	Kind           PaymentKind `gorm:"type:varchar(20);not null"`
	AmountCents    int64       `gorm:"not null"`
	PaidAt         time.Time   `gorm:"not null"`
	AccountID      uuid.UUID   `gorm:"type:uuid;not null"`
	JournalEntryID uuid.UUID   `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (Payment) TableName() string {
	return "order_payments"
}

// NewPayment creates a payment record
func NewPayment(orderID uuid.UUID, kind PaymentKind, amountCents int64, paidAt time.Time, accountID uuid.UUID) (*Payment, error) {
	if amountCents <= 0 {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	return &Payment{
		BaseEntity:  shared.NewBaseEntity(),
		OrderID:     orderID,
		Kind:        kind,
		AmountCents: amountCents,
		PaidAt:      shared.DateOnly(paidAt),
		AccountID:   accountID,
	}, nil
}
