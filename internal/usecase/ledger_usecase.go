// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"tradepost/internal/domain/entity"
	"tradepost/internal/domain/repository"

	"github.com/google/uuid"
)

// LedgerPosting describes one balance change.
type LedgerPosting struct {
	Amount int64 // Always positive; the direction comes from Debit or Credit.
	Kind   entity.LedgerKind
	Reason string
	Links  entity.LedgerLinks
}

// LedgerUsecase owns every change to a credit balance.
// Debit and Credit run inside the caller's transaction on a user row the caller already locked;
// they update user.CreditBalance in place and persist it together with the entry.
type LedgerUsecase interface {
	Debit(ctx context.Context, repos repository.RepositoryFactory, user *entity.User, posting LedgerPosting) (*entity.LedgerEntry, error)
	Credit(ctx context.Context, repos repository.RepositoryFactory, user *entity.User, posting LedgerPosting) (*entity.LedgerEntry, error)

	// Balance returns the materialised balance.
	Balance(ctx context.Context, userID uuid.UUID) (int64, error)

	// ListEntries returns a user's entries newest first.
	ListEntries(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.LedgerEntry, error)

	// Reconcile compares every stored balance with its ledger sum.
	Reconcile(ctx context.Context) ([]entity.BalanceDiscrepancy, error)
}
