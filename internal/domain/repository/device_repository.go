package repository

import (
	"context"

	"tradepost/internal/domain/entity"

	"github.com/google/uuid"
)

// DeviceRepository stores push registrations.
type DeviceRepository interface {
	// Save inserts the registration or refreshes the token of the user's existing installation.
	// Any other row holding the same token is removed first.
	Save(ctx context.Context, device *entity.Device) error

	ListByUser(ctx context.Context, userID uuid.UUID) ([]*entity.Device, error)

	// Delete removes one of the user's devices; domainerrors.ErrDeviceNotFound when none matched.
	Delete(ctx context.Context, userID, id uuid.UUID) error

	// PruneTokens removes every registration holding one of the tokens and reports how many went.
	PruneTokens(ctx context.Context, tokens []string) (int64, error)
}
