package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/order"
	"gorm.io/gorm"
)

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID finds an order by its ID
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &o, nil
}

// FindByNumber finds an order by its number
func (r *GormOrderRepository) FindByNumber(ctx context.Context, number int64) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).Where("number = ?", number).First(&o).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &o, nil
}

// FindByStatus returns orders in any of the given statuses
func (r *GormOrderRepository) FindByStatus(ctx context.Context, statuses ...order.Status) ([]order.Order, error) {
	var out []order.Order
	q := r.db.WithContext(ctx).Order("number")
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Save creates or updates an order
func (r *GormOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return r.db.WithContext(ctx).Save(o).Error
}

// FindOverrides returns the ingredient overrides for an order
func (r *GormOrderRepository) FindOverrides(ctx context.Context, orderID uuid.UUID) ([]order.IngredientOverride, error) {
	var out []order.IngredientOverride
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// SaveOverride creates or updates an ingredient override
func (r *GormOrderRepository) SaveOverride(ctx context.Context, ov *order.IngredientOverride) error {
	return r.db.WithContext(ctx).Save(ov).Error
}

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Product, error) {
	var p order.Product
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &p, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, p *order.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// FindRecipe returns the recipe lines of a product
func (r *GormProductRepository) FindRecipe(ctx context.Context, productID uuid.UUID) ([]order.RecipeLine, error) {
	var out []order.RecipeLine
	if err := r.db.WithContext(ctx).Where("product_id = ?", productID).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// SaveRecipeLine creates or updates a recipe line
func (r *GormProductRepository) SaveRecipeLine(ctx context.Context, line *order.RecipeLine) error {
	return r.db.WithContext(ctx).Save(line).Error
}

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// Create inserts a payment
func (r *GormPaymentRepository) Create(ctx context.Context, p *order.Payment) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// FindByOrder returns payments for an order, oldest first
func (r *GormPaymentRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]order.Payment, error) {
	var out []order.Payment
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("paid_at, created_at").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

var (
	_ order.OrderRepository   = (*GormOrderRepository)(nil)
	_ order.ProductRepository = (*GormProductRepository)(nil)
	_ order.PaymentRepository = (*GormPaymentRepository)(nil)
)
