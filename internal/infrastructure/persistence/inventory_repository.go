package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/inventory"
	"gorm.io/gorm"
)

// GormInventoryItemRepository implements InventoryItemRepository using GORM
type GormInventoryItemRepository struct {
	db *gorm.DB
}

// NewGormInventoryItemRepository creates a new GormInventoryItemRepository
func NewGormInventoryItemRepository(db *gorm.DB) *GormInventoryItemRepository {
	return &GormInventoryItemRepository{db: db}
}

// FindByID finds a stock record by its ID
func (r *GormInventoryItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.InventoryItem, error) {
	var item inventory.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &item, nil
}

// FindByIngredientAndLocation finds the stock record for an ingredient-location pair
func (r *GormInventoryItemRepository) FindByIngredientAndLocation(ctx context.Context, ingredientID, locationID uuid.UUID) (*inventory.InventoryItem, error) {
	var item inventory.InventoryItem
	if err := r.db.WithContext(ctx).
		Where("ingredient_id = ? AND location_id = ?", ingredientID, locationID).
		First(&item).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &item, nil
}

// FindByIngredient finds all stock records for an ingredient
func (r *GormInventoryItemRepository) FindByIngredient(ctx context.Context, ingredientID uuid.UUID) ([]inventory.InventoryItem, error) {
	var items []inventory.InventoryItem
	if err := r.db.WithContext(ctx).
		Where("ingredient_id = ?", ingredientID).
		Order("created_at, id").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// FindAll returns every stock record
func (r *GormInventoryItemRepository) FindAll(ctx context.Context) ([]inventory.InventoryItem, error) {
	var items []inventory.InventoryItem
	if err := r.db.WithContext(ctx).Order("created_at, id").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Save creates or updates a stock record
func (r *GormInventoryItemRepository) Save(ctx context.Context, item *inventory.InventoryItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

var _ inventory.InventoryItemRepository = (*GormInventoryItemRepository)(nil)
