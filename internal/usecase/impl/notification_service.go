package impl

import (
	"context"
	"time"

	"tradepost/internal/domain/entity"
	domainerrors "tradepost/internal/domain/errors"
	"tradepost/internal/domain/repository"
	"tradepost/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type notificationService struct {
	notificationRepo repository.NotificationRepository
}

// NewNotificationService creates a new notification inbox service instance
func NewNotificationService(notificationRepo repository.NotificationRepository) usecase.NotificationUsecase {
	return &notificationService{notificationRepo: notificationRepo}
}

// List returns a page of the user's notifications, newest first
func (s *notificationService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*entity.Notification, error) {
	limit, offset = clampPage(limit, offset)

	notifications, err := s.notificationRepo.ListByUser(ctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}

	return notifications, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count unread notifications")
	}

	return count, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	if err := s.notificationRepo.MarkRead(ctx, userID, notificationID); err != nil {
		return errors.Wrap(err, "failed to mark notification read")
	}

	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	changed, err := s.notificationRepo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to mark notifications read")
	}

	return changed, nil
}

// SetEmailPreference stores the per-kind email opt-in of a user
func (s *notificationService) SetEmailPreference(ctx context.Context, userID uuid.UUID, kind entity.NotificationKind, enabled bool) (*entity.NotificationPreference, error) {
	if !kind.IsValid() {
		return nil, domainerrors.NewValidationError("kind", "unknown notification kind "+string(kind))
	}

	pref := &entity.NotificationPreference{
		UserID:       userID,
		Kind:         kind,
		EmailEnabled: enabled,
		UpdatedAt:    time.Now().UTC(),
	}
	if err := s.notificationRepo.UpsertPreference(ctx, pref); err != nil {
		return nil, errors.Wrap(err, "failed to save notification preference")
	}

	return pref, nil
}
