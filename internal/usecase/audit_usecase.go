package usecase

import (
	"context"
	"time"

	"tradepost/internal/domain/entity"

	"github.com/google/uuid"
)

// AuditUsecase records and reads administrative actions.
type AuditUsecase interface {
	// Log appends an entry. Failures are logged and never returned.
	Log(ctx context.Context, entry *entity.AuditEntry)

	ListByTarget(ctx context.Context, targetType string, targetID uuid.UUID) ([]*entity.AuditEntry, error)
	ListByAdmin(ctx context.Context, adminID uuid.UUID, from, to time.Time) ([]*entity.AuditEntry, error)
}
