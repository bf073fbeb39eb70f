package postgres

import (
	"context"

	"tradepost/internal/domain/entity"
	domainerrors "tradepost/internal/domain/errors"
	"tradepost/internal/domain/repository"
	"tradepost/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// wishlistRepository implements the repository.WishlistRepository interface.
type wishlistRepository struct {
	db *gorm.DB
}

// NewWishlistRepository is the constructor for wishlistRepository.
func NewWishlistRepository(db *gorm.DB) repository.WishlistRepository {
	return &wishlistRepository{db: db}
}

// CreateSubscription inserts a new subscription.
func (repo *wishlistRepository) CreateSubscription(ctx context.Context, sub *entity.WishlistSubscription) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	subM := fromSubscriptionDomain(sub)
	if err := repo.db.WithContext(ctx).Create(subM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to create wishlist subscription")
	}
	sub.CreatedAt = subM.CreatedAt
	sub.UpdatedAt = subM.UpdatedAt

	return nil
}

// FindSubscriptionByID loads one subscription.
func (repo *wishlistRepository) FindSubscriptionByID(ctx context.Context, id uuid.UUID) (*entity.WishlistSubscription, error) {
	var subM model.WishlistSubscriptionModel
	if err := repo.db.WithContext(ctx).Where("id = ?", id).First(&subM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrSubscriptionNotFound
		}

		return nil, errors.Wrap(err, "failed to find wishlist subscription")
	}

	return toSubscriptionDomain(&subM), nil
}

// ListSubscriptionsByUser returns a user's subscriptions newest first.
func (repo *wishlistRepository) ListSubscriptionsByUser(ctx context.Context, userID uuid.UUID) ([]*entity.WishlistSubscription, error) {
	return repo.list(repo.db.WithContext(ctx).Where("user_id = ?", userID))
}

// ListActiveSubscriptions returns every active subscription, oldest first.
func (repo *wishlistRepository) ListActiveSubscriptions(ctx context.Context) ([]*entity.WishlistSubscription, error) {
	return repo.list(repo.db.WithContext(ctx).Where("active = ?", true))
}

func (repo *wishlistRepository) list(db *gorm.DB) ([]*entity.WishlistSubscription, error) {
	var subModels []*model.WishlistSubscriptionModel
	if err := db.Order("created_at DESC").Find(&subModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list wishlist subscriptions")
	}

	subs := make([]*entity.WishlistSubscription, 0, len(subModels))
	for _, subM := range subModels {
		subs = append(subs, toSubscriptionDomain(subM))
	}

	return subs, nil
}

// UpdateSubscription writes the mutable columns of a subscription.
func (repo *wishlistRepository) UpdateSubscription(ctx context.Context, sub *entity.WishlistSubscription) error {
	result := repo.db.WithContext(ctx).
		Model(&model.WishlistSubscriptionModel{}).
		Where("id = ?", sub.ID).
		Updates(map[string]any{
			"active":             sub.Active,
			"notify_email":       sub.NotifyEmail,
			"notify_app":         sub.NotifyApp,
			"notification_count": sub.NotificationCount,
			"last_notified_at":   sub.LastNotifiedAt,
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update wishlist subscription")
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrSubscriptionNotFound
	}

	return nil
}

// InsertMatchIfAbsent inserts the match unless its (subscription, item) pair already exists.
func (repo *wishlistRepository) InsertMatchIfAbsent(ctx context.Context, match *entity.WishlistMatch) (bool, error) {
	if match.ID == uuid.Nil {
		match.ID = uuid.New()
	}
	matchM := fromMatchDomain(match)

	result := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "subscription_id"}, {Name: "item_id"}},
			DoNothing: true,
		}).
		Create(matchM)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "failed to insert wishlist match")
	}

	return result.RowsAffected > 0, nil
}

// FindMatchForUpdate loads the match of a pair and locks it.
func (repo *wishlistRepository) FindMatchForUpdate(ctx context.Context, subscriptionID, itemID uuid.UUID) (*entity.WishlistMatch, error) {
	var matchM model.WishlistMatchModel
	if err := repo.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("subscription_id = ? AND item_id = ?", subscriptionID, itemID).
		First(&matchM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.NewNotFoundError("wishlist match", subscriptionID)
		}

		return nil, errors.Wrap(err, "failed to find wishlist match")
	}

	return toMatchDomain(&matchM), nil
}

// UpdateMatch writes the delivery flags of a match.
func (repo *wishlistRepository) UpdateMatch(ctx context.Context, match *entity.WishlistMatch) error {
	if err := repo.db.WithContext(ctx).
		Model(&model.WishlistMatchModel{}).
		Where("id = ?", match.ID).
		Updates(map[string]any{
			"app_sent":        match.AppSent,
			"email_sent":      match.EmailSent,
			"notification_id": match.NotificationID,
		}).Error; err != nil {
		return errors.Wrap(err, "failed to update wishlist match")
	}

	return nil
}

// CountMatchesByItem returns how many subscriptions matched an item.
func (repo *wishlistRepository) CountMatchesByItem(ctx context.Context, itemID uuid.UUID) (int64, error) {
	var count int64
	if err := repo.db.WithContext(ctx).
		Model(&model.WishlistMatchModel{}).
		Where("item_id = ?", itemID).
		Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count wishlist matches")
	}

	return count, nil
}

// --- Mapper Functions ---

func toSubscriptionDomain(data *model.WishlistSubscriptionModel) *entity.WishlistSubscription {
	return &entity.WishlistSubscription{
		ID:                data.ID,
		UserID:            data.UserID,
		Kind:              entity.SubscriptionKind(data.Kind),
		Target:            data.Target,
		Active:            data.Active,
		NotifyEmail:       data.NotifyEmail,
		NotifyApp:         data.NotifyApp,
		NotificationCount: data.NotificationCount,
		LastNotifiedAt:    data.LastNotifiedAt,
		CreatedAt:         data.CreatedAt,
		UpdatedAt:         data.UpdatedAt,
	}
}

func fromSubscriptionDomain(data *entity.WishlistSubscription) *model.WishlistSubscriptionModel {
	return &model.WishlistSubscriptionModel{
		ID:                data.ID,
		UserID:            data.UserID,
		Kind:              string(data.Kind),
		Target:            data.Target,
		Active:            data.Active,
		NotifyEmail:       data.NotifyEmail,
		NotifyApp:         data.NotifyApp,
		NotificationCount: data.NotificationCount,
		LastNotifiedAt:    data.LastNotifiedAt,
		CreatedAt:         data.CreatedAt,
		UpdatedAt:         data.UpdatedAt,
	}
}

func toMatchDomain(data *model.WishlistMatchModel) *entity.WishlistMatch {
	return &entity.WishlistMatch{
		ID:             data.ID,
		SubscriptionID: data.SubscriptionID,
		ItemID:         data.ItemID,
		AppSent:        data.AppSent,
		EmailSent:      data.EmailSent,
		NotificationID: data.NotificationID,
		CreatedAt:      data.CreatedAt,
		UpdatedAt:      data.UpdatedAt,
	}
}

func fromMatchDomain(data *entity.WishlistMatch) *model.WishlistMatchModel {
	return &model.WishlistMatchModel{
		ID:             data.ID,
		SubscriptionID: data.SubscriptionID,
		ItemID:         data.ItemID,
		AppSent:        data.AppSent,
		EmailSent:      data.EmailSent,
		NotificationID: data.NotificationID,
		CreatedAt:      data.CreatedAt,
		UpdatedAt:      data.UpdatedAt,
	}
}
