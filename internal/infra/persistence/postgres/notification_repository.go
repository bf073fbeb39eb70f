package postgres

import (
	"context"
	"encoding/json"
	"time"

	"tradepost/internal/domain/entity"
	domainerrors "tradepost/internal/domain/errors"
	"tradepost/internal/domain/repository"
	"tradepost/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// notificationRepository implements the repository.NotificationRepository interface.
type notificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository is the constructor for notificationRepository.
func NewNotificationRepository(db *gorm.DB) repository.NotificationRepository {
	return &notificationRepository{
		db: db,
	}
}

// Create persists a new in-app notification.
func (repo *notificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	notificationM, err := fromNotificationDomain(notification)
	if err != nil {
		return err
	}

	if err := repo.db.WithContext(ctx).Create(notificationM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create notification")
	}
	notification.CreatedAt = notificationM.CreatedAt

	return nil
}

// ListByUser returns a user's notifications newest first.
func (repo *notificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*entity.Notification, error) {
	query := repo.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var notificationModels []*model.NotificationModel
	if err := query.
		Order("created_at DESC").
		Limit(pageLimit(limit)).
		Offset(max(offset, 0)).
		Find(&notificationModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}

	notifications := make([]*entity.Notification, 0, len(notificationModels))
	for _, notificationM := range notificationModels {
		notifications = append(notifications, toNotificationDomain(notificationM))
	}

	return notifications, nil
}

// CountUnread returns the number of unread notifications of a user.
func (repo *notificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	if err := repo.db.WithContext(ctx).
		Model(&model.NotificationModel{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count unread notifications")
	}

	return count, nil
}

// MarkRead marks one notification read. Marking an already read notification is a no-op.
func (repo *notificationRepository) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	result := repo.db.WithContext(ctx).
		Model(&model.NotificationModel{}).
		Where("id = ? AND user_id = ? AND is_read = ?", notificationID, userID, false).
		Updates(map[string]any{"is_read": true, "read_at": time.Now().UTC()})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to mark notification read")
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := repo.db.WithContext(ctx).
		Model(&model.NotificationModel{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Count(&count).Error; err != nil {
		return errors.Wrap(err, "failed to find notification")
	}
	if count == 0 {
		return domainerrors.ErrNotificationNotFound
	}

	return nil
}

// MarkAllRead marks every unread notification of the user read.
func (repo *notificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	result := repo.db.WithContext(ctx).
		Model(&model.NotificationModel{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": time.Now().UTC()})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to mark notifications read")
	}

	return result.RowsAffected, nil
}

// MarkEmailSent records that the email copy was delivered.
func (repo *notificationRepository) MarkEmailSent(ctx context.Context, notificationID uuid.UUID) error {
	if err := repo.db.WithContext(ctx).
		Model(&model.NotificationModel{}).
		Where("id = ?", notificationID).
		Update("email_sent", true).Error; err != nil {
		return errors.Wrap(err, "failed to mark notification email sent")
	}

	return nil
}

// FindPreference returns the stored preference or nil.
func (repo *notificationRepository) FindPreference(ctx context.Context, userID uuid.UUID, kind entity.NotificationKind) (*entity.NotificationPreference, error) {
	var prefM model.NotificationPreferenceModel
	if err := repo.db.WithContext(ctx).
		Where("user_id = ? AND kind = ?", userID, string(kind)).
		First(&prefM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, errors.Wrap(err, "failed to find notification preference")
	}

	return &entity.NotificationPreference{
		UserID:       prefM.UserID,
		Kind:         entity.NotificationKind(prefM.Kind),
		EmailEnabled: prefM.EmailEnabled,
		UpdatedAt:    prefM.UpdatedAt,
	}, nil
}

// UpsertPreference inserts or replaces a preference.
func (repo *notificationRepository) UpsertPreference(ctx context.Context, pref *entity.NotificationPreference) error {
	prefM := &model.NotificationPreferenceModel{
		UserID:       pref.UserID,
		Kind:         string(pref.Kind),
		EmailEnabled: pref.EmailEnabled,
	}
	if err := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "kind"}},
			DoUpdates: clause.AssignmentColumns([]string{"email_enabled", "updated_at"}),
		}).
		Create(prefM).Error; err != nil {
		return errors.Wrap(err, "failed to save notification preference")
	}
	pref.UpdatedAt = prefM.UpdatedAt

	return nil
}

// --- Mapper Functions ---

func toNotificationDomain(data *model.NotificationModel) *entity.Notification {
	var payload map[string]any
	if len(data.Payload) > 0 {
		// Payloads are written by this repository; a corrupt one is dropped rather than failing the list.
		_ = json.Unmarshal(data.Payload, &payload)
	}

	return &entity.Notification{
		ID:        data.ID,
		UserID:    data.UserID,
		Kind:      entity.NotificationKind(data.Kind),
		Category:  entity.NotificationCategory(data.Category),
		Priority:  entity.NotificationPriority(data.Priority),
		Message:   data.Message,
		Payload:   payload,
		Read:      data.IsRead,
		EmailSent: data.EmailSent,
		ReadAt:    data.ReadAt,
		CreatedAt: data.CreatedAt,
	}
}

func fromNotificationDomain(data *entity.Notification) (*model.NotificationModel, error) {
	var payload datatypes.JSON
	if len(data.Payload) > 0 {
		raw, err := json.Marshal(data.Payload)
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode notification payload")
		}
		payload = datatypes.JSON(raw)
	}

	return &model.NotificationModel{
		ID:        data.ID,
		UserID:    data.UserID,
		Kind:      string(data.Kind),
		Category:  string(data.Category),
		Priority:  string(data.Priority),
		Message:   data.Message,
		Payload:   payload,
		IsRead:    data.Read,
		EmailSent: data.EmailSent,
		ReadAt:    data.ReadAt,
		CreatedAt: data.CreatedAt,
	}, nil
}
