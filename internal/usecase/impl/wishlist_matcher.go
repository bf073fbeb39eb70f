package impl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	deliverycontext "tradepost/internal/delivery/context"
	"tradepost/internal/domain/entity"
	"tradepost/internal/domain/repository"
	"tradepost/internal/domain/service"
	"tradepost/internal/infra/metrics"
	"tradepost/internal/usecase"
	"tradepost/internal/util"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// wishlistMatcher pairs a newly approved item with active subscriptions.
// The (subscription, item) unique key makes reruns and concurrent runs safe.
type wishlistMatcher struct {
	txManager    repository.TransactionManager
	itemRepo     repository.ItemRepository
	wishlistRepo repository.WishlistRepository
	dispatcher   usecase.NotificationDispatcher
	clock        service.Clock
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// WishlistMatcherParams holds dependencies for WishlistMatcher, injected by Fx.
type WishlistMatcherParams struct {
	fx.In

	TxManager    repository.TransactionManager
	ItemRepo     repository.ItemRepository
	WishlistRepo repository.WishlistRepository
	Dispatcher   usecase.NotificationDispatcher
	Clock        service.Clock
	Metrics      *metrics.Metrics `optional:"true"`
	Logger       *slog.Logger
}

// NewWishlistMatcher is the constructor for wishlistMatcher.
func NewWishlistMatcher(params WishlistMatcherParams) usecase.WishlistMatcher {
	return &wishlistMatcher{
		txManager:    params.TxManager,
		itemRepo:     params.ItemRepo,
		wishlistRepo: params.WishlistRepo,
		dispatcher:   params.Dispatcher,
		clock:        params.Clock,
		metrics:      params.Metrics,
		logger:       params.Logger,
	}
}

func (srv *wishlistMatcher) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// subscriptionMatches applies the category or item name rule of a subscription.
func subscriptionMatches(sub *entity.WishlistSubscription, item *entity.Item) bool {
	switch sub.Kind {
	case entity.SubscriptionKindCategory:
		return strings.EqualFold(strings.TrimSpace(sub.Target), string(item.Category))
	case entity.SubscriptionKindItemName:
		return util.Similarity(sub.Target, item.Name) >= entity.ItemNameMatchThreshold
	default:
		return false
	}
}

// MatchItem creates the missing match rows for an item and notifies only for rows it created.
func (srv *wishlistMatcher) MatchItem(ctx context.Context, itemID uuid.UUID) (int, error) {
	item, err := srv.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to load item for matching")
	}
	if !item.Listed() {
		srv.log(ctx).Info("Item no longer listed, skipping wishlist match", slog.String("itemID", itemID.String()))

		return 0, nil
	}

	subs, err := srv.wishlistRepo.ListActiveSubscriptions(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to list active subscriptions")
	}

	var (
		created  int
		firstErr error
	)
	for _, sub := range subs {
		if sub.UserID == item.UploaderID || !subscriptionMatches(sub, item) {
			continue
		}

		isNew, err := srv.recordMatch(ctx, sub, item)
		if err != nil {
			srv.log(ctx).Error("Failed to record wishlist match",
				slog.String("subscriptionID", sub.ID.String()),
				slog.String("itemID", item.ID.String()),
				slog.Any("error", err),
			)
			if firstErr == nil {
				firstErr = err
			}

			continue
		}
		if isNew {
			created++
		}
	}

	srv.metrics.WishlistMatch(created)
	srv.log(ctx).Info("Wishlist matching finished",
		slog.String("itemID", item.ID.String()),
		slog.Int("subscriptions", len(subs)),
		slog.Int("created", created),
	)

	return created, firstErr
}

func (srv *wishlistMatcher) recordMatch(ctx context.Context, sub *entity.WishlistSubscription, item *entity.Item) (bool, error) {
	var isNew bool
	err := srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		match := &entity.WishlistMatch{ID: uuid.New(), SubscriptionID: sub.ID, ItemID: item.ID}
		created, err := repos.WishlistRepo().InsertMatchIfAbsent(ctx, match)
		if err != nil {
			return err
		}
		if !created {
			return nil
		}
		isNew = true

		return srv.notify(ctx, repos, sub, match, item)
	})

	return isNew, err
}

func (srv *wishlistMatcher) notify(
	ctx context.Context,
	repos repository.RepositoryFactory,
	sub *entity.WishlistSubscription,
	match *entity.WishlistMatch,
	item *entity.Item,
) error {
	wantApp, wantEmail := match.PendingApp(sub), match.PendingEmail(sub)
	if !wantApp && !wantEmail {
		return nil
	}

	subID, itemID := sub.ID, item.ID
	result, err := srv.dispatcher.Dispatch(ctx, repos, &usecase.DispatchRequest{
		UserID:  sub.UserID,
		Kind:    entity.NotificationWishlistMatch,
		Message: fmt.Sprintf("%q matching your wishlist is now available for %d credits", item.Name, item.AppraisedValue),
		Payload: map[string]any{
			"item_id":         item.ID.String(),
			"subscription_id": sub.ID.String(),
			"value":           item.AppraisedValue,
		},
		InApp: wantApp,
		Email: wantEmail,
		OnEmailDelivered: func(ctx context.Context) {
			srv.markEmailSent(ctx, subID, itemID)
		},
	})
	if err != nil {
		return err
	}

	if result.Notification != nil {
		match.AppSent = true
		match.NotificationID = &result.Notification.ID
		if err := repos.WishlistRepo().UpdateMatch(ctx, match); err != nil {
			return errors.Wrap(err, "failed to flag wishlist match")
		}
	}

	current, err := repos.WishlistRepo().FindSubscriptionByID(ctx, sub.ID)
	if err != nil {
		return err
	}
	now := srv.clock.Now()
	current.NotificationCount++
	current.LastNotifiedAt = &now

	return repos.WishlistRepo().UpdateSubscription(ctx, current)
}

func (srv *wishlistMatcher) markEmailSent(ctx context.Context, subscriptionID, itemID uuid.UUID) {
	err := srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		match, err := repos.WishlistRepo().FindMatchForUpdate(ctx, subscriptionID, itemID)
		if err != nil {
			return err
		}
		match.EmailSent = true

		return repos.WishlistRepo().UpdateMatch(ctx, match)
	})
	if err != nil {
		srv.log(ctx).Warn("Failed to flag wishlist match email as sent",
			slog.String("subscriptionID", subscriptionID.String()),
			slog.String("itemID", itemID.String()),
			slog.Any("error", err),
		)
	}
}
