package repository

import (
	"context"

	"tradepost/internal/domain/entity"

	"github.com/google/uuid"
)

// OrderRepository persists orders with their item snapshots.
// Lookups return domainerrors.ErrOrderNotFound when no row matches.
type OrderRepository interface {
	// Create inserts the order and its items.
	Create(ctx context.Context, order *entity.Order) error

	// FindByID loads an order with its items.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Order, error)

	// FindByIDForUpdate loads an order with its items and locks the order row.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Order, error)

	// ListByBuyer returns a buyer's orders newest first.
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]*entity.Order, error)

	// Update writes the status columns of an order.
	Update(ctx context.Context, order *entity.Order) error
}
