package usecase

import (
	"context"

	"tradepost/internal/domain/entity"
	"tradepost/internal/domain/repository"

	"github.com/google/uuid"
)

// ImageUpload is one file part of an item submission.
type ImageUpload struct {
	Filename       string
	ContentType    string
	DeclaredLength int64
	Data           []byte
}

// CreateItemInput defines the data required to submit an item.
type CreateItemInput struct {
	UploaderID  uuid.UUID
	Name        string
	Description string
	Condition   string
	Category    string
	Images      []*ImageUpload
}

// ItemPage is one page of marketplace listings.
type ItemPage struct {
	Items []*entity.Item `json:"items"`
	Total int64          `json:"total"`
}

// ItemUsecase covers item submission and reads.
type ItemUsecase interface {
	// CreateItem validates and stores the images, then creates a pending item.
	CreateItem(ctx context.Context, input *CreateItemInput) (*entity.Item, error)

	// GetItem returns a listed item to anyone, or any item to its uploader, owner or an admin.
	GetItem(ctx context.Context, viewer *entity.User, itemID uuid.UUID) (*entity.Item, error)

	// ListListed returns the marketplace.
	ListListed(ctx context.Context, filter repository.ItemFilter) (*ItemPage, error)

	// ListMine returns the caller's uploads.
	ListMine(ctx context.Context, uploaderID uuid.UUID) ([]*entity.Item, error)

	// Withdraw takes a listed item off the marketplace at the uploader's request.
	Withdraw(ctx context.Context, uploaderID, itemID uuid.UUID) (*entity.Item, error)

	// ListPending returns the moderation queue.
	ListPending(ctx context.Context, limit, offset int) ([]*entity.Item, error)
}
