package usecase

import (
	"context"

	"tradepost/internal/domain/entity"

	"github.com/google/uuid"
)

// CheckoutInput defines a checkout submission.
type CheckoutInput struct {
	BuyerID  uuid.UUID
	Delivery entity.Delivery
	Token    string // Idempotency token from the checkout form.
}

// CheckoutOutput returns the produced order.
type CheckoutOutput struct {
	OrderID  uuid.UUID
	Replayed bool // True when the token was seen within the idempotence window.
}

// CheckoutUsecase converts a cart into an order.
type CheckoutUsecase interface {
	Checkout(ctx context.Context, input *CheckoutInput) (*CheckoutOutput, error)
}

// CartUsecase manages the buyer's cart.
type CartUsecase interface {
	// AddItem puts a listed item in the cart. Adding twice is a no-op.
	AddItem(ctx context.Context, userID, itemID uuid.UUID) (*entity.Cart, error)

	// RemoveItem takes an item out of the cart.
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*entity.Cart, error)

	// GetCart returns the cart with its total.
	GetCart(ctx context.Context, userID uuid.UUID) (*entity.Cart, error)
}
