// Package realtime pushes new in-app notifications to connected clients through Redis.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"

	"tradepost/config"
	"tradepost/internal/domain/constants"
	"tradepost/internal/domain/entity"
	"tradepost/internal/domain/service"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
	"go.uber.org/fx"
)

// publisher is the part of the Redis client the adapter needs.
type publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type redisPublisher struct {
	client publisher
}

// PublisherParams holds dependencies for the realtime publisher, injected by Fx
type PublisherParams struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

// NewRedisPublisher connects to Redis, or returns nil when realtime fan-out is not configured.
func NewRedisPublisher(params PublisherParams) (service.RealtimePublisher, error) {
	cfg := params.Config.Redis
	if cfg == nil || cfg.URL == "" {
		params.Logger.Info("Redis not configured, realtime notifications disabled")

		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse Redis URL")
	}

	// Maint notifications are not available on older servers and only produce warnings.
	opts.MaintNotificationsConfig = &maintnotifications.Config{
		Mode: maintnotifications.ModeDisabled,
	}

	client := redis.NewClient(opts)
	if err := client.Ping(params.Ctx).Err(); err != nil {
		_ = client.Close()

		return nil, errors.Wrap(err, "failed to connect to Redis")
	}

	params.Lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			params.Logger.Info("Closing Redis client")

			return errors.WithStack(client.Close())
		},
	})

	return &redisPublisher{client: client}, nil
}

// Channel names the per-user channel a client subscribes to.
func Channel(userID string) string {
	return constants.RealtimeChannelPrefix + userID
}

// PublishNotification sends the notification JSON to the owner's channel.
func (p *redisPublisher) PublishNotification(ctx context.Context, notification *entity.Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return errors.Wrap(err, "failed to marshal notification")
	}

	if err := p.client.Publish(ctx, Channel(notification.UserID.String()), payload).Err(); err != nil {
		return errors.Wrap(err, "failed to publish to Redis")
	}

	return nil
}
