package inventory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestInventoryItem(t *testing.T) *InventoryItem {
	t.Helper()
	item, err := NewInventoryItem(uuid.New(), uuid.New())
	require.NoError(t, err)
	return item
}

func TestNewInventoryItem(t *testing.T) {
	t.Run("creates empty stock record", func(t *testing.T) {
		item := createTestInventoryItem(t)

		assert.NotEqual(t, uuid.Nil, item.ID)
		assert.Zero(t, item.QuantityOnHand)
		assert.Zero(t, item.AvgCostPerUnitCents)
		assert.False(t, item.NegativeStock)
	})

	t.Run("fails with nil ingredient ID", func(t *testing.T) {
		item, err := NewInventoryItem(uuid.Nil, uuid.New())

		require.Error(t, err)
		assert.Nil(t, item)
		assert.Contains(t, err.Error(), "Ingredient ID")
	})

	t.Run("fails with nil location ID", func(t *testing.T) {
		_, err := NewInventoryItem(uuid.New(), uuid.Nil)
		require.Error(t, err)
	})
}

func TestInventoryItem_Consume(t *testing.T) {
	t.Run("going negative sets the flag and raises an event", func(t *testing.T) {
		item := createTestInventoryItem(t)
		item.Receive(100, 5)

		item.Consume(300)

		assert.Equal(t, int64(-200), item.QuantityOnHand)
		assert.True(t, item.NegativeStock)
		assert.Equal(t, int64(5), item.AvgCostPerUnitCents, "consumption keeps the average")
		require.Len(t, item.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeStockWentNegative, item.GetDomainEvents()[0].EventType())
	})

	t.Run("flag clears once quantity recovers", func(t *testing.T) {
		item := createTestInventoryItem(t)
		item.Consume(10)
		require.True(t, item.NegativeStock)

		item.Receive(10, 4)

		assert.Zero(t, item.QuantityOnHand)
		assert.False(t, item.NegativeStock)
	})
}

func TestInventoryItem_TransferIn(t *testing.T) {
	item := createTestInventoryItem(t)

	item.TransferIn(500, 5)

	assert.Equal(t, int64(500), item.QuantityOnHand)
	assert.Equal(t, int64(5), item.AvgCostPerUnitCents)

	item.TransferIn(500, 8)
	assert.Equal(t, int64(1000), item.QuantityOnHand)
	// (500*5 + 500*8) / 1000 = 6.5
	assert.Equal(t, int64(7), item.AvgCostPerUnitCents)
}

func TestInventoryItem_EffectiveUnitCost(t *testing.T) {
	item := createTestInventoryItem(t)
	assert.Equal(t, int64(12), item.EffectiveUnitCost(12))

	item.SetAverageCost(5)
	assert.Equal(t, int64(5), item.EffectiveUnitCost(12))
}

func TestNewMovement(t *testing.T) {
	ingredient := uuid.New()
	a, b := uuid.New(), uuid.New()
	date := time.Date(2025, 2, 1, 15, 0, 0, 0, time.UTC)

	t.Run("purchase needs only a destination", func(t *testing.T) {
		m, err := NewMovement(ingredient, nil, &b, MovementTypePurchase, 10, date)
		require.NoError(t, err)
		assert.Equal(t, shared.DateOnly(date), m.MovementDate)
		assert.Equal(t, SourceTypeManual, m.SourceType)

		_, err = NewMovement(ingredient, &a, &b, MovementTypePurchase, 10, date)
		require.Error(t, err)
	})

	t.Run("no locations is an unknown direction", func(t *testing.T) {
		_, err := NewMovement(ingredient, nil, nil, MovementTypeUsage, 10, date)
		assert.ErrorIs(t, err, shared.ErrUnknownDirection)
	})

	t.Run("transfer to the same location is rejected", func(t *testing.T) {
		_, err := NewMovement(ingredient, &a, &a, MovementTypeTransfer, 10, date)
		require.Error(t, err)
	})

	t.Run("quantity must be positive", func(t *testing.T) {
		_, err := NewMovement(ingredient, &a, nil, MovementTypeUsage, 0, date)
		require.Error(t, err)
	})
}

func TestMovement_SignedQuantityAt(t *testing.T) {
	ingredient := uuid.New()
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	transfer, err := NewMovement(ingredient, &a, &b, MovementTypeTransfer, 7, time.Now())
	require.NoError(t, err)

	assert.Equal(t, int64(-7), transfer.SignedQuantityAt(a))
	assert.Equal(t, int64(7), transfer.SignedQuantityAt(b))
	assert.Equal(t, int64(0), transfer.SignedQuantityAt(c))

	ret, err := NewMovement(ingredient, &a, nil, MovementTypeReturn, 3, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(-3), ret.SignedQuantityAt(a))
}
