package persistence

import (
	"context"
	"fmt"

	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/uow"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/inventory"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/ledger"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/order"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// It provides atomic execution of multiple repository operations.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos uow.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// Begin opens a transaction the caller completes with Commit or Rollback.
func (s *GormTransactionScope) Begin(ctx context.Context) (uow.UnitOfWork, error) {
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}
	return &gormUnitOfWork{tx: tx, repos: NewRepositories(tx)}, nil
}

type gormUnitOfWork struct {
	tx    *gorm.DB
	repos *GormRepositories
	done  bool
}

func (u *gormUnitOfWork) Repositories() uow.Repositories {
	return u.repos
}

func (u *gormUnitOfWork) Commit() error {
	if u.done {
		return fmt.Errorf("unit of work already completed")
	}
	u.done = true
	return u.tx.Commit().Error
}

func (u *gormUnitOfWork) Rollback() error {
	if u.done {
		return nil
	}
	u.done = true
	return u.tx.Rollback().Error
}

// GormRepositories provides access to all repositories bound to one *gorm.DB,
// which is a transaction inside a unit of work.
type GormRepositories struct {
	tx *gorm.DB
}

// NewRepositories binds every repository to db
func NewRepositories(db *gorm.DB) *GormRepositories {
	return &GormRepositories{tx: db}
}

func (r *GormRepositories) Accounts() ledger.AccountRepository {
	return NewGormAccountRepository(r.tx)
}

func (r *GormRepositories) Entries() ledger.JournalEntryRepository {
	return NewGormJournalEntryRepository(r.tx)
}

func (r *GormRepositories) Ingredients() inventory.IngredientRepository {
	return NewGormIngredientRepository(r.tx)
}

func (r *GormRepositories) Locations() inventory.LocationRepository {
	return NewGormLocationRepository(r.tx)
}

func (r *GormRepositories) Items() inventory.InventoryItemRepository {
	return NewGormInventoryItemRepository(r.tx)
}

func (r *GormRepositories) Movements() inventory.MovementRepository {
	return NewGormMovementRepository(r.tx)
}

func (r *GormRepositories) Orders() order.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

func (r *GormRepositories) Products() order.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r *GormRepositories) Payments() order.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ uow.TransactionScope = (*GormTransactionScope)(nil)

// Ensure GormRepositories implements Repositories
var _ uow.Repositories = (*GormRepositories)(nil)
