package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/inventory"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/ledger"
)

// CreateIngredientRequest registers an ingredient
type CreateIngredientRequest struct {
	Code             string `json:"code" validate:"required,max=50"`
	Name             string `json:"name" validate:"required,max=200"`
	Unit             string `json:"unit" validate:"required,max=20"`
	Category         string `json:"category" validate:"omitempty,oneof=ingredients packing kitchen other"`
	CostPerUnitCents int64  `json:"cost_per_unit_cents" validate:"gte=0"`
}

// CreateLocationRequest registers a stock location
type CreateLocationRequest struct {
	Code string `json:"code" validate:"required,max=50"`
	Name string `json:"name" validate:"max=200"`
}

// PurchaseRequest brings purchased stock into a location
type PurchaseRequest struct {
	IngredientID   uuid.UUID `json:"ingredient_id" validate:"required"`
	LocationID     uuid.UUID `json:"location_id" validate:"required"`
	Quantity       int64     `json:"quantity" validate:"gt=0"`
	TotalCostCents int64     `json:"total_cost_cents" validate:"gte=0"`
	PaidFromCode   string    `json:"paid_from_code" validate:"required"`
	Date           time.Time `json:"date"`
	Notes          string    `json:"notes" validate:"max=500"`
	SourceType     string    `json:"source_type" validate:"max=50"`
	SourceID       string    `json:"source_id" validate:"max=100"`
}

// UsageRequest consumes stock in production. Stock may go negative.
type UsageRequest struct {
	IngredientID uuid.UUID `json:"ingredient_id" validate:"required"`
	LocationID   uuid.UUID `json:"location_id" validate:"required"`
	Quantity     int64     `json:"quantity" validate:"gt=0"`
	Date         time.Time `json:"date"`
	Notes        string    `json:"notes" validate:"max=500"`
	SourceType   string    `json:"source_type" validate:"max=50"`
	SourceID     string    `json:"source_id" validate:"max=100"`
}

// WriteOffRequest removes spoiled or lost stock
type WriteOffRequest struct {
	IngredientID uuid.UUID `json:"ingredient_id" validate:"required"`
	LocationID   uuid.UUID `json:"location_id" validate:"required"`
	Quantity     int64     `json:"quantity" validate:"gt=0"`
	Date         time.Time `json:"date"`
	Notes        string    `json:"notes" validate:"max=500"`
}

// TransferRequest moves stock between two locations
type TransferRequest struct {
	IngredientID   uuid.UUID `json:"ingredient_id" validate:"required"`
	FromLocationID uuid.UUID `json:"from_location_id" validate:"required"`
	ToLocationID   uuid.UUID `json:"to_location_id" validate:"required"`
	Quantity       int64     `json:"quantity" validate:"gt=0"`
	Date           time.Time `json:"date"`
	Notes          string    `json:"notes" validate:"max=500"`
}

// ReturnPurchaseRequest sends a whole purchase back to the supplier
type ReturnPurchaseRequest struct {
	MovementID uuid.UUID `json:"movement_id" validate:"required"`
	Date       time.Time `json:"date"`
	Notes      string    `json:"notes" validate:"max=500"`
}

// UpdatePurchaseRequest edits a recorded purchase. An empty PaidFromCode
// keeps the account credited by the original entry.
type UpdatePurchaseRequest struct {
	MovementID     uuid.UUID `json:"movement_id" validate:"required"`
	Quantity       int64     `json:"quantity" validate:"gt=0"`
	TotalCostCents int64     `json:"total_cost_cents" validate:"gte=0"`
	Date           time.Time `json:"date"`
	PaidFromCode   string    `json:"paid_from_code"`
}

// UpdateTransferRequest edits the quantity or date of a recorded transfer
type UpdateTransferRequest struct {
	MovementID uuid.UUID `json:"movement_id" validate:"required"`
	Quantity   int64     `json:"quantity" validate:"gt=0"`
	Date       time.Time `json:"date"`
}

// ConsumeRequest is a usage driven by another component inside its own unit
// of work, such as an order moving into preparation
type ConsumeRequest struct {
	IngredientID uuid.UUID
	LocationID   uuid.UUID
	Quantity     int64
	Date         time.Time
	SourceType   string
	SourceID     string
	Notes        string
}

// MovementResult is what one stock operation wrote
type MovementResult struct {
	Movement   *inventory.Movement
	Ingredient *inventory.Ingredient
	Items      []*inventory.InventoryItem
	Entry      *ledger.JournalEntry // nil when the movement carried no cost or came from an order
}

// Item returns the stock record at a location touched by the operation
func (r *MovementResult) Item(locationID uuid.UUID) *inventory.InventoryItem {
	for _, it := range r.Items {
		if it.LocationID == locationID {
			return it
		}
	}
	return nil
}
