package impl

import (
	"context"
	"fmt"
	"log/slog"

	deliverycontext "tradepost/internal/delivery/context"
	"tradepost/internal/domain/entity"
	"tradepost/internal/domain/repository"
	"tradepost/internal/domain/service"
	"tradepost/internal/infra/metrics"
	"tradepost/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	channelInApp    = "in_app"
	channelEmail    = "email"
	channelPush     = "push"
	channelRealtime = "realtime"
)

type kindProfile struct {
	category entity.NotificationCategory
	priority entity.NotificationPriority
	title    string
}

var kindProfiles = map[entity.NotificationKind]kindProfile{
	entity.NotificationOrderPlaced:   {entity.NotificationCategoryOrder, entity.NotificationPriorityHigh, "Order placed"},
	entity.NotificationOrderStatus:   {entity.NotificationCategoryOrder, entity.NotificationPriorityNormal, "Order update"},
	entity.NotificationItemApproved:  {entity.NotificationCategoryItem, entity.NotificationPriorityNormal, "Item approved"},
	entity.NotificationItemRejected:  {entity.NotificationCategoryItem, entity.NotificationPriorityHigh, "Item rejected"},
	entity.NotificationLevelUp:       {entity.NotificationCategoryGamification, entity.NotificationPriorityNormal, "Level up"},
	entity.NotificationWishlistMatch: {entity.NotificationCategoryWishlist, entity.NotificationPriorityLow, "Wishlist match"},
	entity.NotificationReferralBonus: {entity.NotificationCategoryAccount, entity.NotificationPriorityNormal, "Referral bonus"},
	entity.NotificationCreditGrant:   {entity.NotificationCategoryAccount, entity.NotificationPriorityNormal, "Credits received"},
}

func profileFor(kind entity.NotificationKind) kindProfile {
	if p, ok := kindProfiles[kind]; ok {
		return p
	}

	return kindProfile{entity.NotificationCategoryAccount, entity.NotificationPriorityNormal, "Notification"}
}

// notificationDispatcher writes in-app rows inside the caller's transaction and
// defers every external channel until that transaction commits.
type notificationDispatcher struct {
	notificationRepo repository.NotificationRepository
	deviceRepo       repository.DeviceRepository
	mailQueue        service.MailQueue
	push             service.PushService
	realtime         service.RealtimePublisher
	metrics          *metrics.Metrics
	logger           *slog.Logger
}

// NotificationDispatcherParams holds dependencies for the dispatcher, injected by Fx.
type NotificationDispatcherParams struct {
	fx.In

	NotificationRepo repository.NotificationRepository
	DeviceRepo       repository.DeviceRepository
	MailQueue        service.MailQueue         `optional:"true"`
	Push             service.PushService       `optional:"true"`
	Realtime         service.RealtimePublisher `optional:"true"`
	Metrics          *metrics.Metrics          `optional:"true"`
	Logger           *slog.Logger
}

// NewNotificationDispatcher is the constructor for notificationDispatcher.
func NewNotificationDispatcher(params NotificationDispatcherParams) usecase.NotificationDispatcher {
	return &notificationDispatcher{
		notificationRepo: params.NotificationRepo,
		deviceRepo:       params.DeviceRepo,
		mailQueue:        params.MailQueue,
		push:             params.Push,
		realtime:         params.Realtime,
		metrics:          params.Metrics,
		logger:           params.Logger,
	}
}

func (srv *notificationDispatcher) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Dispatch records the in-app notification and schedules the email copy.
func (srv *notificationDispatcher) Dispatch(ctx context.Context, repos repository.RepositoryFactory, req *usecase.DispatchRequest) (*usecase.DispatchResult, error) {
	result := &usecase.DispatchResult{}
	profile := profileFor(req.Kind)

	if req.InApp {
		notification := &entity.Notification{
			ID:       uuid.New(),
			UserID:   req.UserID,
			Kind:     req.Kind,
			Category: profile.category,
			Priority: profile.priority,
			Message:  req.Message,
			Payload:  req.Payload,
		}
		if err := repos.NotificationRepo().Create(ctx, notification); err != nil {
			return nil, errors.Wrap(err, "failed to create notification")
		}
		result.Notification = notification

		repos.AfterCommit(func(ctx context.Context) error {
			srv.metrics.Notification(channelInApp, metrics.ResultSuccess)
			srv.fanOut(ctx, notification, profile.title)

			return nil
		})
	}

	if req.Email {
		scheduled, err := srv.scheduleEmail(ctx, repos, req, profile, result.Notification)
		if err != nil {
			return nil, err
		}
		result.EmailScheduled = scheduled
	}

	return result, nil
}

func (srv *notificationDispatcher) scheduleEmail(
	ctx context.Context,
	repos repository.RepositoryFactory,
	req *usecase.DispatchRequest,
	profile kindProfile,
	notification *entity.Notification,
) (bool, error) {
	if srv.mailQueue == nil {
		return false, nil
	}

	user, err := repos.UserRepo().FindByID(ctx, req.UserID)
	if err != nil {
		return false, errors.Wrap(err, "failed to find notification recipient")
	}
	if user.Email == "" {
		return false, nil
	}

	pref, err := repos.NotificationRepo().FindPreference(ctx, req.UserID, req.Kind)
	if err != nil {
		return false, errors.Wrap(err, "failed to find notification preference")
	}
	if pref != nil && !pref.EmailEnabled {
		return false, nil
	}

	msg := &service.EmailMessage{
		To:      user.Email,
		Subject: "[TradePost] " + profile.title,
		Body:    fmt.Sprintf("Hi %s,\n\n%s\n\nThe TradePost team", user.Name, req.Message),
		OnDelivered: func(ctx context.Context) {
			if notification != nil {
				if err := srv.notificationRepo.MarkEmailSent(ctx, notification.ID); err != nil {
					srv.log(ctx).Warn("Failed to flag notification email as sent",
						slog.String("notificationID", notification.ID.String()),
						slog.Any("error", err),
					)
				}
			}
			if req.OnEmailDelivered != nil {
				req.OnEmailDelivered(ctx)
			}
		},
	}

	repos.AfterCommit(func(ctx context.Context) error {
		if !srv.mailQueue.Enqueue(msg) {
			srv.metrics.Notification(channelEmail, metrics.ResultFailure)

			return errors.Errorf("email for %s notification to user %s was not queued", req.Kind, req.UserID)
		}

		return nil
	})

	return true, nil
}

// fanOut pushes a committed notification to devices and live sessions. Both are best effort.
func (srv *notificationDispatcher) fanOut(ctx context.Context, notification *entity.Notification, title string) {
	if srv.realtime != nil {
		if err := srv.realtime.PublishNotification(ctx, notification); err != nil {
			srv.metrics.Notification(channelRealtime, metrics.ResultFailure)
			srv.log(ctx).Warn("Realtime publish failed",
				slog.String("notificationID", notification.ID.String()),
				slog.Any("error", err),
			)
		} else {
			srv.metrics.Notification(channelRealtime, metrics.ResultSuccess)
		}
	}

	if srv.push == nil {
		return
	}

	devices, err := srv.deviceRepo.ListByUser(ctx, notification.UserID)
	if err != nil {
		srv.log(ctx).Warn("Failed to load push devices", slog.Any("error", err))

		return
	}
	if len(devices) == 0 {
		return
	}

	tokens := make([]string, 0, len(devices))
	for _, device := range devices {
		tokens = append(tokens, device.Token)
	}
	data := map[string]string{
		"notification_id": notification.ID.String(),
		"kind":            string(notification.Kind),
	}

	report, err := srv.push.Push(ctx, &service.PushMessage{
		Tokens: tokens,
		Title:  title,
		Body:   notification.Message,
		Data:   data,
	})
	if err != nil {
		srv.metrics.Notification(channelPush, metrics.ResultFailure)
		srv.log(ctx).Warn("Push delivery failed", slog.Any("error", err))

		return
	}
	srv.metrics.Notification(channelPush, metrics.ResultSuccess)
	srv.log(ctx).Debug("Push delivered",
		slog.Int("sent", report.Sent),
		slog.Int("failed", report.Failed),
		slog.Int("invalid", len(report.Invalid)),
	)

	if len(report.Invalid) > 0 {
		pruned, err := srv.deviceRepo.PruneTokens(ctx, report.Invalid)
		if err != nil {
			srv.log(ctx).Warn("Failed to prune invalid push tokens", slog.Any("error", err))
		} else {
			srv.log(ctx).Info("Pruned rejected push tokens", slog.Int64("count", pruned))
		}
	}
}
