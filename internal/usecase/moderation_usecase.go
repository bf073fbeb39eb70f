package usecase

import (
	"context"

	"tradepost/internal/domain/entity"

	"github.com/google/uuid"
)

// AdminAction identifies the administrator and where the request came from.
type AdminAction struct {
	AdminID uuid.UUID
	IP      string
}

// ApproveInput defines an approval decision.
type ApproveInput struct {
	AdminAction
	ItemID uuid.UUID
	Value  int64
	Notes  string
}

// RejectInput defines a rejection decision.
type RejectInput struct {
	AdminAction
	ItemID uuid.UUID
	Reason string
}

// ModerationUsecase is the admin side of the item lifecycle.
type ModerationUsecase interface {
	Approve(ctx context.Context, input *ApproveInput) (*entity.Item, error)
	Reject(ctx context.Context, input *RejectInput) (*entity.Item, error)
}
