package persistence

import (
	"errors"

	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
	"gorm.io/gorm"
)

// translateNotFound maps gorm's missing-row error onto the domain sentinel
func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

func deleteResult(result *gorm.DB) error {
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}
