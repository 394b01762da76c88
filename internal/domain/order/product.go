package order

import (
	"github.com/google/uuid"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
)

// Product is a sellable item made from a recipe
type Product struct {
	shared.BaseEntity
	Code       string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name       string `gorm:"type:varchar(200);not null"`
	PriceCents int64  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product
func NewProduct(code, name string, priceCents int64) (*Product, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Product code cannot be empty")
	}
	if name == "" {
		name = code
	}
	return &Product{BaseEntity: shared.NewBaseEntity(), Code: code, Name: name, PriceCents: priceCents}, nil
}

// RecipeLine is the quantity of one ingredient used per unit of a product
type RecipeLine struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID    uuid.UUID `gorm:"type:uuid;not null;index"`
	IngredientID uuid.UUID `gorm:"type:uuid;not null"`
	Quantity     int64     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (RecipeLine) TableName() string {
	return "recipe_lines"
}

// NewRecipeLine creates a recipe line
func NewRecipeLine(productID, ingredientID uuid.UUID, quantity int64) (*RecipeLine, error) {
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Recipe quantity must be positive")
	}
	return &RecipeLine{ID: uuid.New(), ProductID: productID, IngredientID: ingredientID, Quantity: quantity}, nil
}

// IngredientOverride replaces the product recipe for a single order. When an
// order has any overrides, only the overrides are consumed.
type IngredientOverride struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID      uuid.UUID `gorm:"type:uuid;not null;index"`
	IngredientID uuid.UUID `gorm:"type:uuid;not null"`
	Quantity     int64     `gorm:"not null"`
}

// TableName returns the table name for GORM
func (IngredientOverride) TableName() string {
	return "order_ingredient_overrides"
}

// NewIngredientOverride creates an override line
func NewIngredientOverride(orderID, ingredientID uuid.UUID, quantity int64) (*IngredientOverride, error) {
	if quantity <= 0 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Override quantity must be positive")
	}
	return &IngredientOverride{ID: uuid.New(), OrderID: orderID, IngredientID: ingredientID, Quantity: quantity}, nil
}

// Consumption is one ingredient quantity an order draws from stock
type Consumption struct {
	IngredientID uuid.UUID
	Quantity     int64
}

// ConsumptionFor resolves what an order consumes: the overrides when present,
// otherwise the recipe scaled by the ordered quantity
func ConsumptionFor(o *Order, recipe []RecipeLine, overrides []IngredientOverride) []Consumption {
	if len(overrides) > 0 {
		out := make([]Consumption, 0, len(overrides))
		for _, ov := range overrides {
			out = append(out, Consumption{IngredientID: ov.IngredientID, Quantity: ov.Quantity})
		}
		return out
	}
	units := o.Quantity
	if units <= 0 {
		units = 1
	}
	out := make([]Consumption, 0, len(recipe))
	for _, rl := range recipe {
		out = append(out, Consumption{IngredientID: rl.IngredientID, Quantity: rl.Quantity * units})
	}
	return out
}
