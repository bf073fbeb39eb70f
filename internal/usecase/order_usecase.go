package usecase

import (
	"context"

	"tradepost/internal/domain/entity"

	"github.com/google/uuid"
)

// UpdateOrderStatusInput defines an admin status change.
type UpdateOrderStatusInput struct {
	AdminAction
	OrderID uuid.UUID
	Status  entity.OrderStatus
	Reason  string
}

// OrderUsecase covers order reads and fulfilment.
type OrderUsecase interface {
	// ListOrders returns the buyer's orders newest first.
	ListOrders(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]*entity.Order, error)

	// GetOrder returns one of the buyer's orders.
	GetOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*entity.Order, error)

	// UpdateStatus moves an order forward or cancels it with a refund.
	UpdateStatus(ctx context.Context, input *UpdateOrderStatusInput) (*entity.Order, error)
}
