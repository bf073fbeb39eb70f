package repository

import (
	"context"

	"tradepost/internal/domain/entity"

	"github.com/google/uuid"
)

// NotificationRepository persists in-app notifications and email preferences.
type NotificationRepository interface {
	// Create inserts a notification.
	Create(ctx context.Context, notification *entity.Notification) error

	// ListByUser returns a user's notifications newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*entity.Notification, error)

	// CountUnread returns the number of unread notifications of a user.
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)

	// MarkRead marks one of the user's notifications read. Missing rows return domainerrors.ErrNotificationNotFound.
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error

	// MarkAllRead marks every unread notification of the user read and returns how many changed.
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)

	// MarkEmailSent records that the email copy was delivered.
	MarkEmailSent(ctx context.Context, notificationID uuid.UUID) error

	// FindPreference returns the user's preference for a kind, or nil when none is stored.
	FindPreference(ctx context.Context, userID uuid.UUID, kind entity.NotificationKind) (*entity.NotificationPreference, error)

	// UpsertPreference inserts or replaces a preference.
	UpsertPreference(ctx context.Context, pref *entity.NotificationPreference) error
}
