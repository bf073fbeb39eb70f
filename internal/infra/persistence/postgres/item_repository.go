package postgres

import (
	"context"

	"tradepost/internal/domain/constants"
	"tradepost/internal/domain/entity"
	domainerrors "tradepost/internal/domain/errors"
	"tradepost/internal/domain/repository"
	"tradepost/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"
)

// itemRepository implements the repository.ItemRepository interface.
type itemRepository struct {
	db *gorm.DB
}

// NewItemRepository is the constructor for itemRepository.
func NewItemRepository(db *gorm.DB) repository.ItemRepository {
	return &itemRepository{db: db}
}

func preloadImages(db *gorm.DB) *gorm.DB {
	return db.Preload("Images", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("ordinal ASC")
	})
}

// Create inserts the item together with its images.
func (repo *itemRepository) Create(ctx context.Context, item *entity.Item) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	for _, img := range item.Images {
		if img.ID == uuid.Nil {
			img.ID = uuid.New()
		}
		img.ItemID = item.ID
	}
	itemM := fromItemDomain(item)

	if err := repo.db.WithContext(ctx).Create(itemM).Error; err != nil {
		if isUniqueConstraintViolation(err) {
			return domainerrors.ErrConflict.WithDetails("item number " + item.ItemNumber + " already exists")
		}
		if isForeignKeyConstraintViolation(err) {
			return domainerrors.ErrUserNotFound
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to create item")
	}

	item.CreatedAt = itemM.CreatedAt
	item.UpdatedAt = itemM.UpdatedAt

	return nil
}

// FindByID loads an item with its images.
func (repo *itemRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Item, error) {
	return repo.first(preloadImages(repo.db.WithContext(ctx)), id)
}

// FindByIDForUpdate loads an item and locks its row.
func (repo *itemRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Item, error) {
	db := preloadImages(repo.db.WithContext(ctx)).Clauses(clause.Locking{Strength: "UPDATE"})

	return repo.first(db, id)
}

func (repo *itemRepository) first(db *gorm.DB, id uuid.UUID) (*entity.Item, error) {
	var itemM model.ItemModel
	if err := db.Where("id = ?", id).First(&itemM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrItemNotFound
		}

		return nil, errors.Wrap(err, "failed to find item by ID")
	}

	return toItemDomain(&itemM), nil
}

// FindByIDs loads the given items, skipping ids that do not exist.
func (repo *itemRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Item, error) {
	if len(ids) == 0 {
		return []*entity.Item{}, nil
	}

	var itemModels []*model.ItemModel
	if err := preloadImages(repo.db.WithContext(ctx)).
		Where("id IN ?", ids).
		Find(&itemModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find items by IDs")
	}

	return toItemDomains(itemModels), nil
}

// ItemNumberExists reports whether a human readable number is taken.
func (repo *itemRepository) ItemNumberExists(ctx context.Context, itemNumber string) (bool, error) {
	var count int64
	if err := repo.db.WithContext(ctx).
		Model(&model.ItemModel{}).
		Where("item_number = ?", itemNumber).
		Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "failed to check item number")
	}

	return count > 0, nil
}

// Update writes the state columns. Name, description and images never change after submission.
func (repo *itemRepository) Update(ctx context.Context, item *entity.Item) error {
	result := repo.db.WithContext(ctx).
		Model(&model.ItemModel{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"owner_id":         item.OwnerID,
			"state":            string(item.State),
			"appraised_value":  item.AppraisedValue,
			"rejection_reason": item.RejectionReason,
			"is_visible":       item.IsVisible,
			"approved_at":      item.ApprovedAt,
		})
	if result.Error != nil {
		if isCheckConstraintViolation(result.Error) {
			return domainerrors.ErrInvalidStateTransition.WithDetails(result.Error.Error())
		}

		return errors.Wrap(result.Error, "failed to update item")
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrItemNotFound
	}

	return nil
}

// ListListed returns marketplace items, newest approval first, and the unpaged total.
// Reads go to a replica when one is configured.
func (repo *itemRepository) ListListed(ctx context.Context, filter repository.ItemFilter) ([]*entity.Item, int64, error) {
	query := repo.db.WithContext(ctx).
		Clauses(dbresolver.Read).
		Model(&model.ItemModel{}).
		Where("state = ? AND is_visible = ?", string(entity.ItemStateApproved), true)
	if filter.Category != "" {
		query = query.Where("category = ?", string(filter.Category))
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to count listed items")
	}

	var itemModels []*model.ItemModel
	if err := preloadImages(query).
		Order("approved_at DESC").
		Order("created_at DESC").
		Limit(pageLimit(filter.Limit)).
		Offset(max(filter.Offset, 0)).
		Find(&itemModels).Error; err != nil {
		return nil, 0, errors.Wrap(err, "failed to list items")
	}

	return toItemDomains(itemModels), total, nil
}

// ListByUploader returns a user's uploads newest first.
func (repo *itemRepository) ListByUploader(ctx context.Context, uploaderID uuid.UUID) ([]*entity.Item, error) {
	var itemModels []*model.ItemModel
	if err := preloadImages(repo.db.WithContext(ctx)).
		Where("uploader_id = ?", uploaderID).
		Order("created_at DESC").
		Find(&itemModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list items by uploader")
	}

	return toItemDomains(itemModels), nil
}

// ListPending returns the moderation queue oldest first.
func (repo *itemRepository) ListPending(ctx context.Context, limit, offset int) ([]*entity.Item, error) {
	var itemModels []*model.ItemModel
	if err := preloadImages(repo.db.WithContext(ctx)).
		Where("state = ?", string(entity.ItemStatePending)).
		Order("created_at ASC").
		Limit(pageLimit(limit)).
		Offset(max(offset, 0)).
		Find(&itemModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list pending items")
	}

	return toItemDomains(itemModels), nil
}

// pageLimit clamps a requested page size.
func pageLimit(limit int) int {
	if limit <= 0 {
		return constants.DefaultPageSize
	}

	return min(limit, constants.MaxPageSize)
}

// --- Mapper Functions ---

func toItemDomains(models []*model.ItemModel) []*entity.Item {
	items := make([]*entity.Item, 0, len(models))
	for _, itemM := range models {
		items = append(items, toItemDomain(itemM))
	}

	return items
}

// toItemDomain converts a GORM ItemModel to a domain Item entity.
func toItemDomain(data *model.ItemModel) *entity.Item {
	if data == nil {
		return nil
	}

	images := make([]*entity.ItemImage, 0, len(data.Images))
	for i := range data.Images {
		img := &data.Images[i]
		images = append(images, &entity.ItemImage{
			ID:          img.ID,
			ItemID:      img.ItemID,
			StorageKey:  img.StorageKey,
			URL:         img.URL,
			ContentType: img.ContentType,
			Width:       img.Width,
			Height:      img.Height,
			ByteSize:    img.ByteSize,
			Checksum:    img.Checksum,
			Ordinal:     img.Ordinal,
			CreatedAt:   img.CreatedAt,
		})
	}

	return &entity.Item{
		ID:              data.ID,
		ItemNumber:      data.ItemNumber,
		UploaderID:      data.UploaderID,
		OwnerID:         data.OwnerID,
		Name:            data.Name,
		Description:     data.Description,
		Condition:       entity.Condition(data.Condition),
		Category:        entity.Category(data.Category),
		AppraisedValue:  data.AppraisedValue,
		State:           entity.ItemState(data.State),
		RejectionReason: data.RejectionReason,
		IsVisible:       data.IsVisible,
		Images:          images,
		ApprovedAt:      data.ApprovedAt,
		CreatedAt:       data.CreatedAt,
		UpdatedAt:       data.UpdatedAt,
	}
}

// fromItemDomain converts a domain Item entity to a GORM ItemModel.
func fromItemDomain(data *entity.Item) *model.ItemModel {
	if data == nil {
		return nil
	}

	images := make([]model.ItemImageModel, 0, len(data.Images))
	for _, img := range data.Images {
		images = append(images, model.ItemImageModel{
			ID:          img.ID,
			ItemID:      img.ItemID,
			StorageKey:  img.StorageKey,
			URL:         img.URL,
			ContentType: img.ContentType,
			Width:       img.Width,
			Height:      img.Height,
			ByteSize:    img.ByteSize,
			Checksum:    img.Checksum,
			Ordinal:     img.Ordinal,
			CreatedAt:   img.CreatedAt,
		})
	}

	return &model.ItemModel{
		ID:              data.ID,
		ItemNumber:      data.ItemNumber,
		UploaderID:      data.UploaderID,
		OwnerID:         data.OwnerID,
		Name:            data.Name,
		Description:     data.Description,
		Condition:       string(data.Condition),
		Category:        string(data.Category),
		AppraisedValue:  data.AppraisedValue,
		State:           string(data.State),
		RejectionReason: data.RejectionReason,
		IsVisible:       data.IsVisible,
		Images:          images,
		ApprovedAt:      data.ApprovedAt,
		CreatedAt:       data.CreatedAt,
		UpdatedAt:       data.UpdatedAt,
	}
}
