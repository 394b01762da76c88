package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
)

// InventoryItem is the stock record for one ingredient at one location.
// The composite identifier is IngredientID + LocationID. Rows are created on
// the first movement that touches the pair and are never deleted.
type InventoryItem struct {
	shared.BaseAggregateRoot
	IngredientID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_item_ingredient_location,priority:1"`
	LocationID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_item_ingredient_location,priority:2"`
	QuantityOnHand      int64     `gorm:"not null;default:0"`
	AvgCostPerUnitCents int64     `gorm:"not null;default:0"`
	NegativeStock       bool      `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (InventoryItem) TableName() string {
	return "inventory_items"
}

// NewInventoryItem creates an empty stock record for an ingredient-location pair
func NewInventoryItem(ingredientID, locationID uuid.UUID) (*InventoryItem, error) {
	if ingredientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INGREDIENT", "Ingredient ID cannot be empty")
	}
	if locationID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LOCATION", "Location ID cannot be empty")
	}

	return &InventoryItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		IngredientID:      ingredientID,
		LocationID:        locationID,
	}, nil
}

// CanCover reports whether the item holds at least quantity units
func (i *InventoryItem) CanCover(quantity int64) bool {
	return i.QuantityOnHand >= quantity
}

// EffectiveUnitCost returns the average cost, or fallback when no cost has
// been established yet
func (i *InventoryItem) EffectiveUnitCost(fallback int64) int64 {
	if i.AvgCostPerUnitCents > 0 {
		return i.AvgCostPerUnitCents
	}
	return fallback
}

// ValueCents returns quantity on hand valued at the average cost
func (i *InventoryItem) ValueCents() int64 {
	return i.QuantityOnHand * i.AvgCostPerUnitCents
}

// Receive adds purchased stock. The caller supplies the average recomputed
// from the full purchase history.
func (i *InventoryItem) Receive(quantity, newAvgCents int64) {
	i.QuantityOnHand += quantity
	i.AvgCostPerUnitCents = clampCost(newAvgCents)
	i.changed()
}

// Consume removes stock without touching the average cost. Quantity may go
// below zero; the negative flag tracks it.
func (i *InventoryItem) Consume(quantity int64) {
	i.QuantityOnHand -= quantity
	i.changed()
}

// TransferIn adds stock carried over from another location, blending the
// incoming unit cost into the average with a single weighted step
func (i *InventoryItem) TransferIn(quantity, unitCostCents int64) {
	i.AvgCostPerUnitCents = WeightedAverage(i.QuantityOnHand, i.AvgCostPerUnitCents, quantity, unitCostCents)
	i.QuantityOnHand += quantity
	i.changed()
}

// Adjust shifts the quantity by delta, used when reversing or editing a
// historical movement
func (i *InventoryItem) Adjust(delta int64) {
	i.QuantityOnHand += delta
	i.changed()
}

// SetQuantity overwrites the quantity on hand
func (i *InventoryItem) SetQuantity(quantity int64) {
	i.QuantityOnHand = quantity
	i.changed()
}

// SetAverageCost overwrites the average cost
func (i *InventoryItem) SetAverageCost(avgCents int64) {
	i.AvgCostPerUnitCents = clampCost(avgCents)
	i.changed()
}

// NegativeFlagConsistent reports whether the negative flag agrees with the
// sign of the quantity
func (i *InventoryItem) NegativeFlagConsistent() bool {
	return i.NegativeStock == (i.QuantityOnHand < 0)
}

func (i *InventoryItem) changed() {
	wasNegative := i.NegativeStock
	i.NegativeStock = i.QuantityOnHand < 0
	if i.NegativeStock && !wasNegative {
		i.AddDomainEvent(NewStockWentNegativeEvent(i))
	}
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
}

func clampCost(c int64) int64 {
	if c < 0 {
		return 0
	}
	return c
}
