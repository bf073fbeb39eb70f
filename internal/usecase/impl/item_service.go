package impl

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	deliverycontext "tradepost/internal/delivery/context"
	"tradepost/internal/domain/entity"
	domainerrors "tradepost/internal/domain/errors"
	"tradepost/internal/domain/repository"
	"tradepost/internal/domain/service"
	"tradepost/internal/infra/metrics"
	"tradepost/internal/usecase"
	"tradepost/internal/util"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const maxItemNumberAttempts = 5

// itemService implements the ItemUsecase interface.
type itemService struct {
	txManager repository.TransactionManager
	itemRepo  repository.ItemRepository
	validator service.ImageValidator
	blobs     service.BlobStore
	clock     service.Clock
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// ItemServiceParams holds dependencies for ItemService, injected by Fx.
type ItemServiceParams struct {
	fx.In

	TxManager repository.TransactionManager
	ItemRepo  repository.ItemRepository
	Validator service.ImageValidator
	Blobs     service.BlobStore
	Clock     service.Clock
	Metrics   *metrics.Metrics `optional:"true"`
	Logger    *slog.Logger
}

// NewItemService is the constructor for itemService.
func NewItemService(params ItemServiceParams) usecase.ItemUsecase {
	return &itemService{
		txManager: params.TxManager,
		itemRepo:  params.ItemRepo,
		validator: params.Validator,
		blobs:     params.Blobs,
		clock:     params.Clock,
		metrics:   params.Metrics,
		logger:    params.Logger,
	}
}

func (srv *itemService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

type itemFields struct {
	name        string
	description string
	condition   entity.Condition
	category    entity.Category
}

func validateItemFields(input *usecase.CreateItemInput) (*itemFields, error) {
	fields := &itemFields{
		name:        strings.TrimSpace(input.Name),
		description: strings.TrimSpace(input.Description),
		condition:   entity.Condition(strings.ToLower(strings.TrimSpace(input.Condition))),
	}

	if n := len([]rune(fields.name)); n < entity.MinItemNameLen || n > entity.MaxItemNameLen {
		return nil, domainerrors.NewValidationError("name", fmt.Sprintf("must be %d..%d characters", entity.MinItemNameLen, entity.MaxItemNameLen))
	}
	if n := len([]rune(fields.description)); n < entity.MinItemDescLen || n > entity.MaxItemDescLen {
		return nil, domainerrors.NewValidationError("description", fmt.Sprintf("must be %d..%d characters", entity.MinItemDescLen, entity.MaxItemDescLen))
	}
	if !fields.condition.IsValid() {
		return nil, domainerrors.NewValidationError("condition", "unknown condition "+input.Condition)
	}
	category, ok := entity.ParseCategory(input.Category)
	if !ok {
		return nil, domainerrors.NewValidationError("category", "unknown category "+input.Category)
	}
	fields.category = category

	if n := len(input.Images); n < entity.MinItemImages || n > entity.MaxItemImages {
		return nil, domainerrors.NewValidationError("images", fmt.Sprintf("must attach %d..%d images", entity.MinItemImages, entity.MaxItemImages))
	}

	return fields, nil
}

// imageKey names a stored image after its uploader, the submission time and the sanitised client name.
func imageKey(uploaderID uuid.UUID, unixNano int64, ordinal int, filename, detectedType string) string {
	base := util.SanitizeFilename(filename)
	stem := strings.TrimSuffix(base, path.Ext(base))
	if stem == "" {
		stem = "image"
	}

	return fmt.Sprintf("items/%s/%d_%d_%s.%s", uploaderID, unixNano, ordinal, stem, detectedType)
}

// CreateItem validates every image before anything is stored, writes the
// images to the blob store and then inserts the pending item.
func (srv *itemService) CreateItem(ctx context.Context, input *usecase.CreateItemInput) (*entity.Item, error) {
	fields, err := validateItemFields(input)
	if err != nil {
		srv.metrics.Upload(metrics.ResultFailure)

		return nil, err
	}

	validated := make([]*service.ValidatedImage, len(input.Images))
	for i, img := range input.Images {
		v, err := srv.validator.Validate(ctx, &service.ImageCandidate{
			Filename:       img.Filename,
			ContentType:    img.ContentType,
			DeclaredLength: img.DeclaredLength,
			Data:           img.Data,
		})
		if err != nil {
			srv.metrics.Upload(metrics.ResultFailure)
			srv.log(ctx).Warn("Image rejected",
				slog.String("uploaderID", input.UploaderID.String()),
				slog.String("filename", img.Filename),
				slog.Any("error", err),
			)

			return nil, err
		}
		validated[i] = v
	}

	now := srv.clock.Now()
	item := &entity.Item{
		ID:          uuid.New(),
		UploaderID:  input.UploaderID,
		OwnerID:     input.UploaderID,
		Name:        fields.name,
		Description: fields.description,
		Condition:   fields.condition,
		Category:    fields.category,
		State:       entity.ItemStatePending,
	}

	var stored []string
	cleanup := func() {
		cleanupCtx := context.WithoutCancel(ctx)
		for _, key := range stored {
			if err := srv.blobs.Delete(cleanupCtx, key); err != nil {
				srv.log(ctx).Warn("Failed to delete orphaned image", slog.String("key", key), slog.Any("error", err))
			}
		}
	}

	for i, img := range input.Images {
		v := validated[i]
		key := imageKey(input.UploaderID, now.UnixNano(), i, img.Filename, v.DetectedType)
		url, err := srv.blobs.Put(ctx, key, img.Data, v.MIMEType)
		if err != nil {
			cleanup()
			srv.metrics.Upload(metrics.ResultFailure)

			return nil, errors.Wrap(err, "failed to store item image")
		}
		stored = append(stored, key)

		item.Images = append(item.Images, &entity.ItemImage{
			StorageKey:  key,
			URL:         url,
			ContentType: v.MIMEType,
			Width:       v.Width,
			Height:      v.Height,
			ByteSize:    v.ByteSize,
			Checksum:    util.ChecksumBytes(img.Data),
			Ordinal:     i,
		})
	}

	if err := srv.insertItem(ctx, item, now); err != nil {
		cleanup()
		srv.metrics.Upload(metrics.ResultFailure)

		return nil, err
	}

	srv.metrics.Upload(metrics.ResultSuccess)
	srv.log(ctx).Info("Item submitted for moderation",
		slog.String("itemID", item.ID.String()),
		slog.String("itemNumber", item.ItemNumber),
		slog.Int("images", len(item.Images)),
	)

	return item, nil
}

// insertItem assigns a fresh item number and inserts the item, retrying when a
// concurrent submission took the same number.
func (srv *itemService) insertItem(ctx context.Context, item *entity.Item, now time.Time) error {
	var err error
	for range maxItemNumberAttempts {
		err = srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
			uploader, err := repos.UserRepo().FindByID(ctx, item.UploaderID)
			if err != nil {
				return errors.Wrap(err, "failed to find uploader")
			}
			if uploader.Banned {
				return domainerrors.ErrUserBanned
			}

			number, err := srv.freeItemNumber(ctx, repos.ItemRepo(), now)
			if err != nil {
				return err
			}
			item.ItemNumber = number

			return repos.ItemRepo().Create(ctx, item)
		})
		if !errors.Is(err, domainerrors.ErrConflict) {
			break
		}
		srv.log(ctx).Warn("Item number collision, retrying", slog.String("itemNumber", item.ItemNumber))
	}
	if err != nil {
		return errors.Wrap(err, "failed to create item")
	}

	return nil
}

func (srv *itemService) freeItemNumber(ctx context.Context, itemRepo repository.ItemRepository, now time.Time) (string, error) {
	for range maxItemNumberAttempts {
		number, err := util.ItemNumber(now)
		if err != nil {
			return "", err
		}
		exists, err := itemRepo.ItemNumberExists(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}

	return "", domainerrors.ErrConflict.WithDetails("could not allocate an item number")
}

// GetItem returns a listed item to anyone, and any item to its uploader, owner or an admin.
func (srv *itemService) GetItem(ctx context.Context, viewer *entity.User, itemID uuid.UUID) (*entity.Item, error) {
	item, err := srv.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.Listed() {
		return item, nil
	}
	if viewer != nil && (viewer.ID == item.UploaderID || viewer.ID == item.OwnerID || viewer.IsAdmin()) {
		return item, nil
	}

	return nil, domainerrors.ErrItemNotFound
}

func (srv *itemService) ListListed(ctx context.Context, filter repository.ItemFilter) (*usecase.ItemPage, error) {
	if filter.Category != "" {
		category, ok := entity.ParseCategory(string(filter.Category))
		if !ok {
			return nil, domainerrors.NewValidationError("category", "unknown category "+string(filter.Category))
		}
		filter.Category = category
	}
	filter.Limit, filter.Offset = clampPage(filter.Limit, filter.Offset)

	items, total, err := srv.itemRepo.ListListed(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list items")
	}

	return &usecase.ItemPage{Items: items, Total: total}, nil
}

func (srv *itemService) ListMine(ctx context.Context, uploaderID uuid.UUID) ([]*entity.Item, error) {
	items, err := srv.itemRepo.ListByUploader(ctx, uploaderID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list uploaded items")
	}

	return items, nil
}

// Withdraw takes a listed item off the marketplace. Cart rows holding it stay
// and block checkout until the buyer removes them.
func (srv *itemService) Withdraw(ctx context.Context, uploaderID, itemID uuid.UUID) (*entity.Item, error) {
	var withdrawn *entity.Item
	err := srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		item, err := repos.ItemRepo().FindByIDForUpdate(ctx, itemID)
		if err != nil {
			return err
		}
		if item.UploaderID != uploaderID {
			return domainerrors.ErrForbidden.WithDetails("only the uploader can withdraw an item")
		}
		if err := item.Withdraw(); err != nil {
			return err
		}
		if err := repos.ItemRepo().Update(ctx, item); err != nil {
			return errors.Wrap(err, "failed to update item")
		}
		withdrawn = item

		return nil
	})
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Item withdrawn", slog.String("itemID", itemID.String()))

	return withdrawn, nil
}

func (srv *itemService) ListPending(ctx context.Context, limit, offset int) ([]*entity.Item, error) {
	limit, offset = clampPage(limit, offset)

	items, err := srv.itemRepo.ListPending(ctx, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list pending items")
	}

	return items, nil
}
