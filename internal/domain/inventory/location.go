package inventory

import (
	"strings"

	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
)

// Location is a place where stock is kept (main storage, a kitchen, a van).
type Location struct {
	shared.BaseEntity
	Code string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name string `gorm:"type:varchar(200);not null"`
}

// TableName returns the table name for GORM
func (Location) TableName() string {
	return "locations"
}

// NewLocation creates a new location
func NewLocation(code, name string) (*Location, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Location code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		name = code
	}
	return &Location{
		BaseEntity: shared.NewBaseEntity(),
		Code:       code,
		Name:       name,
	}, nil
}
