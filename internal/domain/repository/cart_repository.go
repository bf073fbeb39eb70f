package repository

import (
	"context"

	"tradepost/internal/domain/entity"

	"github.com/google/uuid"
)

// CartRepository manages the per-user set of cart items.
type CartRepository interface {
	// Add inserts the cart item unless it is already present; added reports which happened.
	Add(ctx context.Context, item *entity.CartItem) (added bool, err error)

	// Remove deletes one item from a user's cart.
	Remove(ctx context.Context, userID, itemID uuid.UUID) error

	// ListByUser returns the cart items of a user with their items loaded, oldest first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.CartItem, error)

	// Clear empties a user's cart.
	Clear(ctx context.Context, userID uuid.UUID) error
}
