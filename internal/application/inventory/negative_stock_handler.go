package inventory

import (
	"context"
	"fmt"

	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/inventory"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
	"go.uber.org/zap"
)

// NegativeStockAlertHandler logs a warning whenever a stock record drops
// below zero, so the kitchen can record the missing purchase
type NegativeStockAlertHandler struct {
	logger *zap.Logger
}

// NewNegativeStockAlertHandler creates a new NegativeStockAlertHandler
func NewNegativeStockAlertHandler(logger *zap.Logger) *NegativeStockAlertHandler {
	return &NegativeStockAlertHandler{logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *NegativeStockAlertHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockWentNegative}
}

// Handle processes a StockWentNegativeEvent
func (h *NegativeStockAlertHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	e, ok := event.(*inventory.StockWentNegativeEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", inventory.EventTypeStockWentNegative),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			inventory.EventTypeStockWentNegative, event.EventType())
	}

	h.logger.Warn("stock went negative",
		zap.String("inventory_item_id", e.InventoryItemID.String()),
		zap.String("ingredient_id", e.IngredientID.String()),
		zap.String("location_id", e.LocationID.String()),
		zap.Int64("quantity_on_hand", e.QuantityOnHand),
	)
	return nil
}

var _ shared.EventHandler = (*NegativeStockAlertHandler)(nil)
