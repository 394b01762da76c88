package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/application/uow"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/inventory"
	"github.com/gtame1/mr-munchme-accounting-app-sub000/internal/domain/shared"
)

func findIngredient(ctx context.Context, repos uow.Repositories, id uuid.UUID) (*inventory.Ingredient, error) {
	ing, err := repos.Ingredients().FindByID(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.Newf(shared.CodeNotFound, "Ingredient %s not found", id)
	}
	return ing, err
}

func findLocation(ctx context.Context, repos uow.Repositories, id uuid.UUID) (*inventory.Location, error) {
	loc, err := repos.Locations().FindByID(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.Newf(shared.CodeNotFound, "Location %s not found", id)
	}
	return loc, err
}

func findMovement(ctx context.Context, repos uow.Repositories, id uuid.UUID) (*inventory.Movement, error) {
	m, err := repos.Movements().FindByID(ctx, id)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.Newf(shared.CodeNotFound, "Movement %s not found", id)
	}
	return m, err
}

// stockItem returns the stock record for a pair, or a new unsaved one when
// the pair has never been stocked
func stockItem(ctx context.Context, repos uow.Repositories, ingredientID, locationID uuid.UUID) (*inventory.InventoryItem, error) {
	item, err := repos.Items().FindByIngredientAndLocation(ctx, ingredientID, locationID)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}
	if _, err := findLocation(ctx, repos, locationID); err != nil {
		return nil, err
	}
	return inventory.NewInventoryItem(ingredientID, locationID)
}

// existingStock returns the stock record for a pair and fails with code when
// it is missing or holds less than quantity
func existingStock(ctx context.Context, repos uow.Repositories, ingredientID, locationID uuid.UUID, quantity int64, code string) (*inventory.InventoryItem, error) {
	if _, err := findLocation(ctx, repos, locationID); err != nil {
		return nil, err
	}
	item, err := repos.Items().FindByIngredientAndLocation(ctx, ingredientID, locationID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.Newf(code, "No stock on hand: requested %d", quantity)
	}
	if err != nil {
		return nil, err
	}
	if !item.CanCover(quantity) {
		return nil, shared.Newf(code, "Insufficient stock: %d on hand, %d requested", item.QuantityOnHand, quantity)
	}
	return item, nil
}

func saveItems(ctx context.Context, repos uow.Repositories, items ...*inventory.InventoryItem) error {
	for _, it := range items {
		if err := repos.Items().Save(ctx, it); err != nil {
			return err
		}
	}
	return nil
}

// recomputePurchaseAverage re-derives a pair's average from its remaining
// purchase history
func recomputePurchaseAverage(ctx context.Context, repos uow.Repositories, item *inventory.InventoryItem) error {
	purchases, err := repos.Movements().FindPurchases(ctx, item.IngredientID, item.LocationID)
	if err != nil {
		return err
	}
	item.SetAverageCost(inventory.PurchaseAverage(purchases))
	return nil
}
