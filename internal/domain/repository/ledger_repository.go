package repository

import (
	"context"

	"tradepost/internal/domain/entity"

	"github.com/google/uuid"
)

// LedgerRepository is append-only: it exposes no update or delete.
type LedgerRepository interface {
	// Append inserts a new entry.
	Append(ctx context.Context, entry *entity.LedgerEntry) error

	// ListByUser returns a user's entries newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.LedgerEntry, error)

	// SumByUser returns the sum of all entry amounts for a user.
	SumByUser(ctx context.Context, userID uuid.UUID) (int64, error)

	// FindDiscrepancies returns users whose stored balance differs from their ledger sum.
	FindDiscrepancies(ctx context.Context) ([]entity.BalanceDiscrepancy, error)
}
