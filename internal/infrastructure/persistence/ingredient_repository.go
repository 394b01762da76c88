package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/inventory"
	"gorm.io/gorm"
)

// GormIngredientRepository implements IngredientRepository using GORM
type GormIngredientRepository struct {
	db *gorm.DB
}

// NewGormIngredientRepository creates a new GormIngredientRepository
func NewGormIngredientRepository(db *gorm.DB) *GormIngredientRepository {
	return &GormIngredientRepository{db: db}
}

// FindByID finds an ingredient by its ID
func (r *GormIngredientRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Ingredient, error) {
	var ing inventory.Ingredient
	if err := r.db.WithContext(ctx).First(&ing, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &ing, nil
}

// FindByCode finds an ingredient by its unique code
func (r *GormIngredientRepository) FindByCode(ctx context.Context, code string) (*inventory.Ingredient, error) {
	var ing inventory.Ingredient
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&ing).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &ing, nil
}

// FindAll returns all ingredients ordered by code
func (r *GormIngredientRepository) FindAll(ctx context.Context) ([]inventory.Ingredient, error) {
	var out []inventory.Ingredient
	if err := r.db.WithContext(ctx).Order("code").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Save creates or updates an ingredient
func (r *GormIngredientRepository) Save(ctx context.Context, ing *inventory.Ingredient) error {
	return r.db.WithContext(ctx).Save(ing).Error
}

// GormLocationRepository implements LocationRepository using GORM
type GormLocationRepository struct {
	db *gorm.DB
}

// NewGormLocationRepository creates a new GormLocationRepository
func NewGormLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

// FindByID finds a location by its ID
func (r *GormLocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Location, error) {
	var loc inventory.Location
	if err := r.db.WithContext(ctx).First(&loc, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &loc, nil
}

// FindByCode finds a location by its unique code
func (r *GormLocationRepository) FindByCode(ctx context.Context, code string) (*inventory.Location, error) {
	var loc inventory.Location
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&loc).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &loc, nil
}

// FindAll returns all locations ordered by code
func (r *GormLocationRepository) FindAll(ctx context.Context) ([]inventory.Location, error) {
	var out []inventory.Location
	if err := r.db.WithContext(ctx).Order("code").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Save creates or updates a location
func (r *GormLocationRepository) Save(ctx context.Context, loc *inventory.Location) error {
	return r.db.WithContext(ctx).Save(loc).Error
}

var (
	_ inventory.IngredientRepository = (*GormIngredientRepository)(nil)
	_ inventory.LocationRepository   = (*GormLocationRepository)(nil)
)
