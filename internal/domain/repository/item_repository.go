package repository

import (
	"context"

	"tradepost/internal/domain/entity"

	"github.com/google/uuid"
)

// ItemFilter narrows marketplace listings.
type ItemFilter struct {
	Category entity.Category
	Limit    int
	Offset   int
}

// ItemRepository persists items and their images.
// Lookups return domainerrors.ErrItemNotFound when no row matches.
type ItemRepository interface {
	// Create inserts the item with its images. Duplicate item numbers return domainerrors.ErrConflict.
	Create(ctx context.Context, item *entity.Item) error

	// FindByID loads an item with its images.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Item, error)

	// FindByIDForUpdate loads an item and holds a row lock until the transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Item, error)

	// FindByIDs loads the given items in any order, skipping missing ids.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Item, error)

	// ItemNumberExists reports whether a human readable number is taken.
	ItemNumberExists(ctx context.Context, itemNumber string) (bool, error)

	// Update writes the state columns of an item.
	Update(ctx context.Context, item *entity.Item) error

	// ListListed returns items visible in the marketplace, newest first, with the total count.
	ListListed(ctx context.Context, filter ItemFilter) ([]*entity.Item, int64, error)

	// ListByUploader returns items uploaded by a user, newest first.
	ListByUploader(ctx context.Context, uploaderID uuid.UUID) ([]*entity.Item, error)

	// ListPending returns the moderation queue, oldest first.
	ListPending(ctx context.Context, limit, offset int) ([]*entity.Item, error)
}
