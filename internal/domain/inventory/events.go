package inventory

import (
	"github.com/google/uuid"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeInventoryItem = "InventoryItem"
	AggregateTypeMovement      = "InventoryMovement"
)

// Event type constants
const (
	EventTypeStockWentNegative = "inventory.stock_went_negative"
	EventTypeMovementRecorded  = "inventory.movement_recorded"
)

// StockWentNegativeEvent is raised when a stock record drops below zero
type StockWentNegativeEvent struct {
	shared.BaseDomainEvent
	InventoryItemID uuid.UUID `json:"inventory_item_id"`
	IngredientID    uuid.UUID `json:"ingredient_id"`
	LocationID      uuid.UUID `json:"location_id"`
	QuantityOnHand  int64     `json:"quantity_on_hand"`
}

// NewStockWentNegativeEvent creates a new StockWentNegativeEvent
func NewStockWentNegativeEvent(item *InventoryItem) *StockWentNegativeEvent {
	return &StockWentNegativeEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockWentNegative, AggregateTypeInventoryItem, item.ID),
		InventoryItemID: item.ID,
		IngredientID:    item.IngredientID,
		LocationID:      item.LocationID,
		QuantityOnHand:  item.QuantityOnHand,
	}
}

// MovementRecordedEvent is raised after a movement and its journal entry commit
type MovementRecordedEvent struct {
	shared.BaseDomainEvent
	MovementID     uuid.UUID    `json:"movement_id"`
	IngredientID   uuid.UUID    `json:"ingredient_id"`
	MovementType   MovementType `json:"movement_type"`
	Quantity       int64        `json:"quantity"`
	TotalCostCents int64        `json:"total_cost_cents"`
}

// NewMovementRecordedEvent creates a new MovementRecordedEvent
func NewMovementRecordedEvent(m *Movement) *MovementRecordedEvent {
	return &MovementRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeMovementRecorded, AggregateTypeMovement, m.ID),
		MovementID:      m.ID,
		IngredientID:    m.IngredientID,
		MovementType:    m.MovementType,
		Quantity:        m.Quantity,
		TotalCostCents:  m.TotalCostCents,
	}
}
