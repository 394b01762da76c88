package validate

import (
	"testing"

	"github.com/google/uuid"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	IngredientID uuid.UUID `json:"ingredient_id" validate:"required"`
	Quantity     int64     `json:"quantity" validate:"gt=0"`
	Kind         string    `json:"kind" validate:"omitempty,oneof=deposit payment"`
}

func TestStruct(t *testing.T) {
	t.Run("valid request", func(t *testing.T) {
		err := Struct(sampleRequest{IngredientID: uuid.New(), Quantity: 5, Kind: "deposit"})
		assert.NoError(t, err)
	})

	t.Run("invalid request names every field", func(t *testing.T) {
		err := Struct(sampleRequest{Kind: "refund"})

		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrValidation)
		assert.Equal(t, shared.CodeValidationFailed, shared.CodeOf(err))
		assert.Contains(t, err.Error(), "ingredient_id: is required")
		assert.Contains(t, err.Error(), "quantity: must be greater than 0")
		assert.Contains(t, err.Error(), "kind: must be one of")
	})
}
