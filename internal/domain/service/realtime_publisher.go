package service

import (
	"context"

	"tradepost/internal/domain/entity"
)

// RealtimePublisher fans new notifications out to connected clients.
type RealtimePublisher interface {
	PublishNotification(ctx context.Context, notification *entity.Notification) error
}
