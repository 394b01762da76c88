package persistence

import (
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/inventory"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/ledger"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/order"
	"gorm.io/gorm"
)

// Models lists every persisted type in dependency order
func Models() []any {
	return []any{
		&ledger.Account{},
		&ledger.JournalEntry{},
		&ledger.JournalLine{},
		&inventory.Ingredient{},
		&inventory.Location{},
		&inventory.InventoryItem{},
		&inventory.Movement{},
		&order.Product{},
		&order.RecipeLine{},
		&order.Order{},
		&order.IngredientOverride{},
		&order.Payment{},
	}
}

// AutoMigrate creates or updates the schema from the model structs. SQL
// migrations under migrations/ are authoritative for PostgreSQL; this is used
// for SQLite and tests.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
