package inventory

import (
	"strings"

	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
)

// Ingredient is a stockable raw material, packing item or kitchen supply.
type Ingredient struct {
	shared.BaseEntity
	Code             string   `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name             string   `gorm:"type:varchar(200);not null"`
	Unit             string   `gorm:"type:varchar(20);not null"`
	Category         Category `gorm:"type:varchar(20);not null;default:'ingredients'"`
	CostPerUnitCents int64    `gorm:"not null;default:0"` // fallback when no stock cost exists yet
}

// TableName returns the table name for GORM
func (Ingredient) TableName() string {
	return "ingredients"
}

// NewIngredient creates a new ingredient
func NewIngredient(code, name, unit string, category Category, costPerUnitCents int64) (*Ingredient, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Ingredient code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Ingredient name cannot be empty")
	}
	if category == "" {
		category = CategoryIngredients
	}
	if !category.IsValid() {
		return nil, shared.Newf("INVALID_CATEGORY", "Unknown inventory category %q", category)
	}
	if costPerUnitCents < 0 {
		return nil, shared.NewDomainError("INVALID_COST", "Default cost cannot be negative")
	}

	return &Ingredient{
		BaseEntity:       shared.NewBaseEntity(),
		Code:             code,
		Name:             name,
		Unit:             unit,
		Category:         category,
		CostPerUnitCents: costPerUnitCents,
	}, nil
}
