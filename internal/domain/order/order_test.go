package order

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(t *testing.T) *Order {
	t.Helper()
	o, err := NewOrder(42, uuid.New(), uuid.New(), time.Now(), 25000, 1500)
	require.NoError(t, err)
	return o
}

func TestOrder_TransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    Status
		to      Status
		changed bool
		wantErr bool
	}{
		{"new to in_prep", StatusNew, StatusInPrep, true, false},
		{"in_prep to delivered", StatusInPrep, StatusDelivered, true, false},
		{"new to canceled", StatusNew, StatusCanceled, true, false},
		{"in_prep to canceled", StatusInPrep, StatusCanceled, true, false},
		{"same status is a no-op", StatusInPrep, StatusInPrep, false, false},
		{"new straight to delivered", StatusNew, StatusDelivered, false, true},
		{"delivered back to in_prep", StatusDelivered, StatusInPrep, false, true},
		{"canceled to delivered", StatusCanceled, StatusDelivered, false, true},
		{"unknown status", StatusNew, Status("shipped"), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newTestOrder(t)
			o.Status = tt.from

			changed, err := o.TransitionTo(tt.to)

			if tt.wantErr {
				assert.ErrorIs(t, err, shared.ErrInvalidStateTransition)
				assert.Equal(t, tt.from, o.Status)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.changed, changed)
			assert.Equal(t, tt.to, o.Status)
		})
	}
}

func TestOrder_TransitionRaisesEvent(t *testing.T) {
	o := newTestOrder(t)

	_, err := o.TransitionTo(StatusInPrep)
	require.NoError(t, err)

	events := o.GetDomainEvents()
	require.Len(t, events, 1)
	ev, ok := events[0].(*StatusChangedEvent)
	require.True(t, ok)
	assert.Equal(t, StatusNew, ev.From)
	assert.Equal(t, StatusInPrep, ev.To)
}

func TestOrder_ReferenceAndTotal(t *testing.T) {
	o := newTestOrder(t)

	assert.Equal(t, "Order #42", o.Reference())
	assert.Equal(t, int64(26500), o.TotalCents())
}

func TestConsumptionFor(t *testing.T) {
	o := newTestOrder(t)
	o.Quantity = 3
	flour, sugar := uuid.New(), uuid.New()
	recipe := []RecipeLine{
		{IngredientID: flour, Quantity: 200},
		{IngredientID: sugar, Quantity: 50},
	}

	t.Run("recipe scaled by quantity", func(t *testing.T) {
		got := ConsumptionFor(o, recipe, nil)
		assert.Equal(t, []Consumption{{flour, 600}, {sugar, 150}}, got)
	})

	t.Run("overrides replace the recipe", func(t *testing.T) {
		got := ConsumptionFor(o, recipe, []IngredientOverride{{IngredientID: sugar, Quantity: 10}})
		assert.Equal(t, []Consumption{{sugar, 10}}, got)
	})
}
