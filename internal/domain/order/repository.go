package order

import (
	"context"

	"github.com/google/uuid"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// FindByID finds an order by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByNumber finds an order by its number
	FindByNumber(ctx context.Context, number int64) (*Order, error)

	// FindByStatus returns orders in any of the given statuses, by number
	FindByStatus(ctx context.Context, statuses ...Status) ([]Order, error)

	// Save creates or updates an order
	Save(ctx context.Context, o *Order) error

	// FindOverrides returns the ingredient overrides for an order
	FindOverrides(ctx context.Context, orderID uuid.UUID) ([]IngredientOverride, error)

	// SaveOverride creates or updates an ingredient override
	SaveOverride(ctx context.Context, ov *IngredientOverride) error
}

// ProductRepository defines the interface for product and recipe persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// Save creates or updates a product
	Save(ctx context.Context, p *Product) error

	// FindRecipe returns the recipe lines of a product
	FindRecipe(ctx context.Context, productID uuid.UUID) ([]RecipeLine, error)

	// SaveRecipeLine creates or updates a recipe line
	SaveRecipeLine(ctx context.Context, line *RecipeLine) error
}

// PaymentRepository defines the interface for order payment persistence
type PaymentRepository interface {
	// Create inserts a payment
	Create(ctx context.Context, p *Payment) error

	// FindByOrder returns payments for an order, oldest first
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]Payment, error)
}
