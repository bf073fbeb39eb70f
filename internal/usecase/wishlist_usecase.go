package usecase

import (
	"context"

	"tradepost/internal/domain/entity"

	"github.com/google/uuid"
)

// Search types accepted by the wishlist form.
const (
	WishlistSearchItem     = "item"
	WishlistSearchCategory = "category"
)

// SubscribeInput defines a new wishlist entry.
type SubscribeInput struct {
	UserID         uuid.UUID
	SearchType     string
	ItemName       string
	Category       string
	NotifyViaEmail bool
	NotifyViaApp   bool
}

// WishlistUsecase manages a user's wishlist.
type WishlistUsecase interface {
	Subscribe(ctx context.Context, input *SubscribeInput) (*entity.WishlistSubscription, error)
	ListSubscriptions(ctx context.Context, userID uuid.UUID) ([]*entity.WishlistSubscription, error)
	Deactivate(ctx context.Context, userID, subscriptionID uuid.UUID) error
}

// WishlistMatcher pairs a newly approved item with interested subscribers.
type WishlistMatcher interface {
	// MatchItem creates missing match rows and notifies their owners. Re-running it is a no-op.
	MatchItem(ctx context.Context, itemID uuid.UUID) (created int, err error)
}
