package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/ledger"
	"gorm.io/gorm"
)

// GormAccountRepository implements AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByID finds an account by its ID
func (r *GormAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Account, error) {
	var a ledger.Account
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &a, nil
}

// FindByCode finds an account by its unique code
func (r *GormAccountRepository) FindByCode(ctx context.Context, code string) (*ledger.Account, error) {
	var a ledger.Account
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&a).Error; err != nil {
		return nil, translateNotFound(err)
	}
	return &a, nil
}

// FindAll returns all accounts ordered by code
func (r *GormAccountRepository) FindAll(ctx context.Context) ([]ledger.Account, error) {
	var accounts []ledger.Account
	if err := r.db.WithContext(ctx).Order("code").Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

// Save creates or updates an account
func (r *GormAccountRepository) Save(ctx context.Context, a *ledger.Account) error {
	return r.db.WithContext(ctx).Save(a).Error
}

var _ ledger.AccountRepository = (*GormAccountRepository)(nil)
