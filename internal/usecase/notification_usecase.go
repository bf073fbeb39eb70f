package usecase

import (
	"context"

	"tradepost/internal/domain/entity"
	"tradepost/internal/domain/repository"

	"github.com/google/uuid"
)

// DispatchRequest describes one notification to a user.
type DispatchRequest struct {
	UserID  uuid.UUID
	Kind    entity.NotificationKind
	Message string
	Payload map[string]any
	InApp   bool
	Email   bool

	// OnEmailDelivered runs after the mail transport accepted the email copy.
	OnEmailDelivered func(ctx context.Context)
}

// DispatchResult reports which channels were used.
type DispatchResult struct {
	Notification   *entity.Notification // Nil when the in-app channel was not requested.
	EmailScheduled bool
}

// NotificationDispatcher writes in-app notifications inside the caller's transaction
// and schedules email, push and realtime delivery for after the commit.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, repos repository.RepositoryFactory, req *DispatchRequest) (*DispatchResult, error)
}

// NotificationUsecase is the user's inbox.
type NotificationUsecase interface {
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*entity.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	SetEmailPreference(ctx context.Context, userID uuid.UUID, kind entity.NotificationKind, enabled bool) (*entity.NotificationPreference, error)
}
