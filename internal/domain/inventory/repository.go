package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// IngredientRepository defines the interface for ingredient persistence
type IngredientRepository interface {
	// FindByID finds an ingredient by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Ingredient, error)

	// FindByCode finds an ingredient by its unique code
	FindByCode(ctx context.Context, code string) (*Ingredient, error)

	// FindAll returns all ingredients ordered by code
	FindAll(ctx context.Context) ([]Ingredient, error)

	// Save creates or updates an ingredient
	Save(ctx context.Context, ingredient *Ingredient) error
}

// LocationRepository defines the interface for location persistence
type LocationRepository interface {
	// FindByID finds a location by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Location, error)

	// FindByCode finds a location by its unique code
	FindByCode(ctx context.Context, code string) (*Location, error)

	// FindAll returns all locations ordered by code
	FindAll(ctx context.Context) ([]Location, error)

	// Save creates or updates a location
	Save(ctx context.Context, location *Location) error
}

// InventoryItemRepository defines the interface for stock record persistence
type InventoryItemRepository interface {
	// FindByID finds a stock record by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryItem, error)

	// FindByIngredientAndLocation finds the stock record for a pair.
	// Returns shared.ErrNotFound when the pair has never been stocked.
	FindByIngredientAndLocation(ctx context.Context, ingredientID, locationID uuid.UUID) (*InventoryItem, error)

	// FindByIngredient finds all stock records for an ingredient
	FindByIngredient(ctx context.Context, ingredientID uuid.UUID) ([]InventoryItem, error)

	// FindAll returns every stock record
	FindAll(ctx context.Context) ([]InventoryItem, error)

	// Save creates or updates a stock record
	Save(ctx context.Context, item *InventoryItem) error
}

// MovementRepository defines the interface for movement persistence.
// Listing methods order by movement date, then creation time, then ID.
type MovementRepository interface {
	// FindByID finds a movement by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Movement, error)

	// Create inserts a new movement
	Create(ctx context.Context, movement *Movement) error

	// Save updates an existing movement
	Save(ctx context.Context, movement *Movement) error

	// Delete removes a movement
	Delete(ctx context.Context, id uuid.UUID) error

	// FindAll returns every movement
	FindAll(ctx context.Context) ([]Movement, error)

	// FindPurchases returns purchase movements into a location for an ingredient
	FindPurchases(ctx context.Context, ingredientID, locationID uuid.UUID) ([]Movement, error)

	// FindPurchasesByIngredient returns purchases of an ingredient at any
	// location, limited to movement dates on or before asOf when asOf is set
	FindPurchasesByIngredient(ctx context.Context, ingredientID uuid.UUID, asOf *time.Time) ([]Movement, error)

	// FindByIngredient returns every movement of an ingredient
	FindByIngredient(ctx context.Context, ingredientID uuid.UUID) ([]Movement, error)

	// FindBySource returns movements created by a source record
	FindBySource(ctx context.Context, sourceType, sourceID string) ([]Movement, error)
}
