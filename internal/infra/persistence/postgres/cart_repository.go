package postgres

import (
	"context"

	"tradepost/internal/domain/entity"
	"tradepost/internal/domain/repository"
	"tradepost/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// cartRepository implements the repository.CartRepository interface.
type cartRepository struct {
	db *gorm.DB
}

// NewCartRepository is the constructor for cartRepository.
func NewCartRepository(db *gorm.DB) repository.CartRepository {
	return &cartRepository{db: db}
}

// Add inserts the cart item; an existing (user, item) pair is left untouched.
func (repo *cartRepository) Add(ctx context.Context, item *entity.CartItem) (bool, error) {
	cartM := &model.CartItemModel{
		UserID:  item.UserID,
		ItemID:  item.ItemID,
		AddedAt: item.AddedAt,
	}

	result := repo.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(cartM)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, "failed to add cart item")
	}

	return result.RowsAffected > 0, nil
}

// Remove deletes one item from a user's cart. Removing an absent item is not an error.
func (repo *cartRepository) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	if err := repo.db.WithContext(ctx).
		Where("user_id = ? AND item_id = ?", userID, itemID).
		Delete(&model.CartItemModel{}).Error; err != nil {
		return errors.Wrap(err, "failed to remove cart item")
	}

	return nil
}

// ListByUser returns a user's cart items with their items loaded, oldest first.
func (repo *cartRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.CartItem, error) {
	var cartModels []*model.CartItemModel
	if err := repo.db.WithContext(ctx).
		Preload("Item").
		Preload("Item.Images", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("ordinal ASC")
		}).
		Where("user_id = ?", userID).
		Order("added_at ASC").
		Find(&cartModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list cart items")
	}

	items := make([]*entity.CartItem, 0, len(cartModels))
	for _, cartM := range cartModels {
		items = append(items, &entity.CartItem{
			UserID:  cartM.UserID,
			ItemID:  cartM.ItemID,
			AddedAt: cartM.AddedAt,
			Item:    toItemDomain(cartM.Item),
		})
	}

	return items, nil
}

// Clear empties a user's cart.
func (repo *cartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&model.CartItemModel{}).Error; err != nil {
		return errors.Wrap(err, "failed to clear cart")
	}

	return nil
}
