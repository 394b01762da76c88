// Package uow defines the unit of work shared by every mutating operation.
// All movement, stock and journal writes of one operation go through the
// same Repositories value and commit or roll back together.
package uow

import (
	"context"

	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/inventory"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/ledger"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/order"
)

// TransactionScope opens units of work.
type TransactionScope interface {
	// Execute runs fn within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos Repositories) error) error

	// Begin starts a unit of work the caller must Commit or Rollback.
	Begin(ctx context.Context) (UnitOfWork, error)
}

// UnitOfWork is an open transaction with explicit completion.
type UnitOfWork interface {
	// Repositories returns repositories bound to this unit of work
	Repositories() Repositories
	// Commit makes every write permanent
	Commit() error
	// Rollback discards every write. Calling it after Commit is a no-op.
	Rollback() error
}

// Repositories provides access to all repositories within a unit of work.
// All repositories returned share the same underlying transaction.
type Repositories interface {
	Accounts() ledger.AccountRepository
	Entries() ledger.JournalEntryRepository
	Ingredients() inventory.IngredientRepository
	Locations() inventory.LocationRepository
	Items() inventory.InventoryItemRepository
	Movements() inventory.MovementRepository
	Orders() order.OrderRepository
	Products() order.ProductRepository
	Payments() order.PaymentRepository
}

// KeyLocker serializes work on named keys, such as one ingredient at one
// location. Release must be called exactly once after a successful Acquire.
type KeyLocker interface {
	Acquire(ctx context.Context, keys ...string) (release func(), err error)
}
