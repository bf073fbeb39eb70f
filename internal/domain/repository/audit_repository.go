package repository

import (
	"context"
	"time"

	"tradepost/internal/domain/entity"

	"github.com/google/uuid"
)

// AuditRepository is append-only.
type AuditRepository interface {
	// Create inserts an audit entry.
	Create(ctx context.Context, entry *entity.AuditEntry) error

	// ListByTarget returns the entries of one target newest first.
	ListByTarget(ctx context.Context, targetType string, targetID uuid.UUID) ([]*entity.AuditEntry, error)

	// ListByAdmin returns an admin's entries within [from, to) newest first.
	ListByAdmin(ctx context.Context, adminID uuid.UUID, from, to time.Time) ([]*entity.AuditEntry, error)
}
