package repository

import (
	"context"

	"tradepost/internal/domain/entity"

	"github.com/google/uuid"
)

// WishlistRepository persists subscriptions and their matches.
type WishlistRepository interface {
	// CreateSubscription inserts a new subscription.
	CreateSubscription(ctx context.Context, sub *entity.WishlistSubscription) error

	// FindSubscriptionByID returns domainerrors.ErrSubscriptionNotFound when missing.
	FindSubscriptionByID(ctx context.Context, id uuid.UUID) (*entity.WishlistSubscription, error)

	// ListSubscriptionsByUser returns a user's subscriptions newest first.
	ListSubscriptionsByUser(ctx context.Context, userID uuid.UUID) ([]*entity.WishlistSubscription, error)

	// ListActiveSubscriptions returns every active subscription.
	ListActiveSubscriptions(ctx context.Context) ([]*entity.WishlistSubscription, error)

	// UpdateSubscription writes the mutable columns of a subscription.
	UpdateSubscription(ctx context.Context, sub *entity.WishlistSubscription) error

	// InsertMatchIfAbsent inserts the match unless the (subscription, item) pair exists.
	InsertMatchIfAbsent(ctx context.Context, match *entity.WishlistMatch) (created bool, err error)

	// FindMatchForUpdate loads the match of a pair and locks it.
	FindMatchForUpdate(ctx context.Context, subscriptionID, itemID uuid.UUID) (*entity.WishlistMatch, error)

	// UpdateMatch writes the delivery flags of a match.
	UpdateMatch(ctx context.Context, match *entity.WishlistMatch) error

	// CountMatchesByItem returns how many subscriptions matched an item.
	CountMatchesByItem(ctx context.Context, itemID uuid.UUID) (int64, error)
}
