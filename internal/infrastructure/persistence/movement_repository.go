package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/inventory"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
	"gorm.io/gorm"
)

// GormMovementRepository implements MovementRepository using GORM
type GormMovementRepository struct {
	db *gorm.DB
}

// NewGormMovementRepository creates a new GormMovementRepository
func NewGormMovementRepository(db *gorm.DB) *GormMovementRepository {
	return &GormMovementRepository{db: db}
}

func (r *GormMovementRepository) ordered(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Order("movement_date, created_at, id")
}

// FindByID finds a movement by its ID
func (r *GormMovementRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.Movement, error) {
	var m inventory.Movement
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &m, nil
}

// Create inserts a new movement
func (r *GormMovementRepository) Create(ctx context.Context, m *inventory.Movement) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// Save updates an existing movement
func (r *GormMovementRepository) Save(ctx context.Context, m *inventory.Movement) error {
	return r.db.WithContext(ctx).Save(m).Error
}

// Delete removes a movement
func (r *GormMovementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteResult(r.db.WithContext(ctx).Delete(&inventory.Movement{}, "id = ?", id))
}

// FindAll returns every movement
func (r *GormMovementRepository) FindAll(ctx context.Context) ([]inventory.Movement, error) {
	var out []inventory.Movement
	if err := r.ordered(ctx).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// FindPurchases returns purchase movements into a location for an ingredient
func (r *GormMovementRepository) FindPurchases(ctx context.Context, ingredientID, locationID uuid.UUID) ([]inventory.Movement, error) {
	var out []inventory.Movement
	if err := r.ordered(ctx).
		Where("ingredient_id = ? AND to_location_id = ? AND movement_type = ?",
			ingredientID, locationID, inventory.MovementTypePurchase).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// FindPurchasesByIngredient returns purchases of an ingredient at any location
func (r *GormMovementRepository) FindPurchasesByIngredient(ctx context.Context, ingredientID uuid.UUID, asOf *time.Time) ([]inventory.Movement, error) {
	var out []inventory.Movement
	q := r.ordered(ctx).
		Where("ingredient_id = ? AND movement_type = ?", ingredientID, inventory.MovementTypePurchase)
	if asOf != nil {
		q = q.Where("movement_date <= ?", shared.DateOnly(*asOf))
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// FindByIngredient returns every movement of an ingredient
func (r *GormMovementRepository) FindByIngredient(ctx context.Context, ingredientID uuid.UUID) ([]inventory.Movement, error) {
	var out []inventory.Movement
	if err := r.ordered(ctx).Where("ingredient_id = ?", ingredientID).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// FindBySource returns movements created by a source record
func (r *GormMovementRepository) FindBySource(ctx context.Context, sourceType, sourceID string) ([]inventory.Movement, error) {
	var out []inventory.Movement
	if err := r.ordered(ctx).
		Where("source_type = ? AND source_id = ?", sourceType, sourceID).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

var _ inventory.MovementRepository = (*GormMovementRepository)(nil)
