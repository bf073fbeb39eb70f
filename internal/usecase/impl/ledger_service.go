// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"

	deliverycontext "tradepost/internal/delivery/context"
	"tradepost/internal/domain/constants"
	"tradepost/internal/domain/entity"
	domainerrors "tradepost/internal/domain/errors"
	"tradepost/internal/domain/repository"
	"tradepost/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// ledgerService implements the LedgerUsecase interface.
type ledgerService struct {
	userRepo   repository.UserRepository
	ledgerRepo repository.LedgerRepository
	logger     *slog.Logger
}

// LedgerServiceParams holds dependencies for LedgerService, injected by Fx.
type LedgerServiceParams struct {
	fx.In

	UserRepo   repository.UserRepository
	LedgerRepo repository.LedgerRepository
	Logger     *slog.Logger
}

// NewLedgerService is the constructor for ledgerService.
func NewLedgerService(params LedgerServiceParams) usecase.LedgerUsecase {
	return &ledgerService{
		userRepo:   params.UserRepo,
		ledgerRepo: params.LedgerRepo,
		logger:     params.Logger,
	}
}

func (srv *ledgerService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Debit removes credits from a locked user and records the entry in the same transaction.
func (srv *ledgerService) Debit(ctx context.Context, repos repository.RepositoryFactory, user *entity.User, posting usecase.LedgerPosting) (*entity.LedgerEntry, error) {
	if posting.Amount <= 0 {
		return nil, domainerrors.NewValidationError("amount", "must be positive")
	}
	if user.CreditBalance < posting.Amount {
		return nil, domainerrors.NewInsufficientCreditsError(posting.Amount, user.CreditBalance)
	}

	return srv.post(ctx, repos, user, -posting.Amount, posting)
}

// Credit adds credits to a locked user and records the entry in the same transaction.
func (srv *ledgerService) Credit(ctx context.Context, repos repository.RepositoryFactory, user *entity.User, posting usecase.LedgerPosting) (*entity.LedgerEntry, error) {
	if posting.Amount <= 0 {
		return nil, domainerrors.NewValidationError("amount", "must be positive")
	}

	return srv.post(ctx, repos, user, posting.Amount, posting)
}

func (srv *ledgerService) post(ctx context.Context, repos repository.RepositoryFactory, user *entity.User, amount int64, posting usecase.LedgerPosting) (*entity.LedgerEntry, error) {
	entry := &entity.LedgerEntry{
		ID:            uuid.New(),
		UserID:        user.ID,
		Amount:        amount,
		Kind:          posting.Kind,
		Reason:        posting.Reason,
		BalanceBefore: user.CreditBalance,
		BalanceAfter:  user.CreditBalance + amount,
		OrderID:       posting.Links.OrderID,
		ItemID:        posting.Links.ItemID,
	}

	if err := repos.LedgerRepo().Append(ctx, entry); err != nil {
		return nil, errors.Wrap(err, "failed to append ledger entry")
	}

	user.CreditBalance = entry.BalanceAfter
	if err := repos.UserRepo().Update(ctx, user); err != nil {
		return nil, errors.Wrap(err, "failed to update credit balance")
	}

	srv.log(ctx).Debug("Ledger entry posted",
		slog.String("userID", user.ID.String()),
		slog.String("kind", string(entry.Kind)),
		slog.Int64("amount", entry.Amount),
		slog.Int64("balanceAfter", entry.BalanceAfter),
	)

	return entry, nil
}

// Balance returns the materialised balance of a user.
func (srv *ledgerService) Balance(ctx context.Context, userID uuid.UUID) (int64, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(err, "failed to find user")
	}

	return user.CreditBalance, nil
}

// ListEntries returns a page of the user's ledger, newest first.
func (srv *ledgerService) ListEntries(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.LedgerEntry, error) {
	limit, offset = clampPage(limit, offset)

	entries, err := srv.ledgerRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list ledger entries")
	}

	return entries, nil
}

// Reconcile reports every user whose balance differs from the sum of their entries.
func (srv *ledgerService) Reconcile(ctx context.Context) ([]entity.BalanceDiscrepancy, error) {
	discrepancies, err := srv.ledgerRepo.FindDiscrepancies(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to reconcile ledger")
	}

	if len(discrepancies) > 0 {
		srv.log(ctx).Error("Ledger discrepancies found", slog.Int("count", len(discrepancies)))
	} else {
		srv.log(ctx).Info("Ledger reconciled, no discrepancies")
	}

	return discrepancies, nil
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = constants.DefaultPageSize
	}
	if limit > constants.MaxPageSize {
		limit = constants.MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
