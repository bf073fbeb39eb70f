package impl

import (
	"context"
	"strings"

	"tradepost/internal/domain/entity"
	domainerrors "tradepost/internal/domain/errors"
	"tradepost/internal/domain/repository"
	"tradepost/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const (
	minWishlistNameLen = 2
	maxWishlistNameLen = 100
)

type wishlistService struct {
	wishlistRepo repository.WishlistRepository
}

// NewWishlistService creates a new wishlist service instance
func NewWishlistService(wishlistRepo repository.WishlistRepository) usecase.WishlistUsecase {
	return &wishlistService{wishlistRepo: wishlistRepo}
}

// Subscribe records a standing interest in an item name or a category
func (s *wishlistService) Subscribe(ctx context.Context, input *usecase.SubscribeInput) (*entity.WishlistSubscription, error) {
	sub := &entity.WishlistSubscription{
		ID:          uuid.New(),
		UserID:      input.UserID,
		Active:      true,
		NotifyEmail: input.NotifyViaEmail,
		NotifyApp:   input.NotifyViaApp,
	}

	switch strings.ToLower(strings.TrimSpace(input.SearchType)) {
	case usecase.WishlistSearchItem:
		name := strings.TrimSpace(input.ItemName)
		if n := len([]rune(name)); n < minWishlistNameLen || n > maxWishlistNameLen {
			return nil, domainerrors.NewValidationError("item_name", "must be 2..100 characters")
		}
		sub.Kind = entity.SubscriptionKindItemName
		sub.Target = name
	case usecase.WishlistSearchCategory:
		category, ok := entity.ParseCategory(input.Category)
		if !ok {
			return nil, domainerrors.NewValidationError("category", "unknown category "+input.Category)
		}
		sub.Kind = entity.SubscriptionKindCategory
		sub.Target = string(category)
	default:
		return nil, domainerrors.NewValidationError("search_type", "must be item or category")
	}

	if !sub.NotifyEmail && !sub.NotifyApp {
		return nil, domainerrors.NewValidationError("notify_via_app", "at least one delivery channel is required")
	}

	if err := s.wishlistRepo.CreateSubscription(ctx, sub); err != nil {
		return nil, errors.Wrap(err, "failed to create wishlist subscription")
	}

	return sub, nil
}

func (s *wishlistService) ListSubscriptions(ctx context.Context, userID uuid.UUID) ([]*entity.WishlistSubscription, error) {
	subs, err := s.wishlistRepo.ListSubscriptionsByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list wishlist subscriptions")
	}

	return subs, nil
}

// Deactivate stops matching a subscription. Other users' entries look missing
func (s *wishlistService) Deactivate(ctx context.Context, userID, subscriptionID uuid.UUID) error {
	sub, err := s.wishlistRepo.FindSubscriptionByID(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if sub.UserID != userID {
		return domainerrors.ErrSubscriptionNotFound
	}
	if !sub.Active {
		return nil
	}

	sub.Active = false
	if err := s.wishlistRepo.UpdateSubscription(ctx, sub); err != nil {
		return errors.Wrap(err, "failed to deactivate wishlist subscription")
	}

	return nil
}
