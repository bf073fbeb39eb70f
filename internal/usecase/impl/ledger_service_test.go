package impl

import (
	"context"
	"testing"

	"tradepost/internal/domain/entity"
	domainerrors "tradepost/internal/domain/errors"
	"tradepost/internal/domain/repository"
	"tradepost/internal/infra/persistence/model"
	"tradepost/internal/testutil"
	"tradepost/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_PostingKeepsBalanceAndEntriesInStep(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, env.db, 100)

	err := env.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		locked, err := repos.UserRepo().FindByIDForUpdate(ctx, user.ID)
		if err != nil {
			return err
		}
		if _, err := env.ledger.Credit(ctx, repos, locked, usecase.LedgerPosting{Amount: 50, Kind: entity.LedgerKindAdminGrant, Reason: "bonus"}); err != nil {
			return err
		}
		entry, err := env.ledger.Debit(ctx, repos, locked, usecase.LedgerPosting{Amount: 30, Kind: entity.LedgerKindPurchaseDebit, Reason: "test"})
		if err != nil {
			return err
		}
		assert.Equal(t, int64(150), entry.BalanceBefore)
		assert.Equal(t, int64(120), entry.BalanceAfter)
		assert.Equal(t, int64(-30), entry.Amount)

		return nil
	})
	require.NoError(t, err)

	balance, err := env.ledger.Balance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(120), balance)

	entries, err := env.ledger.ListEntries(ctx, user.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	page, err := env.ledger.ListEntries(ctx, user.ID, 1, 1)
	require.NoError(t, err)
	assert.Len(t, page, 1)

	env.requireReconciled(t)
}

func TestLedger_RejectsBadPostings(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, env.db, 20)

	err := env.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		locked, err := repos.UserRepo().FindByIDForUpdate(ctx, user.ID)
		if err != nil {
			return err
		}

		_, err = env.ledger.Credit(ctx, repos, locked, usecase.LedgerPosting{Amount: 0, Kind: entity.LedgerKindAdminGrant})
		assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)

		_, err = env.ledger.Debit(ctx, repos, locked, usecase.LedgerPosting{Amount: -5, Kind: entity.LedgerKindPurchaseDebit})
		assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)

		_, err = env.ledger.Debit(ctx, repos, locked, usecase.LedgerPosting{Amount: 21, Kind: entity.LedgerKindPurchaseDebit})
		var insufficient *domainerrors.InsufficientCreditsError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, int64(21), insufficient.Required)
		assert.Equal(t, int64(20), insufficient.Available)

		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, int64(20), env.user(t, user.ID).CreditBalance)
	assert.Len(t, env.entries(t, user.ID), 1)
}

func TestLedger_ReconcileReportsDrift(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	healthy := testutil.SeedUser(t, env.db, 40)
	drifted := testutil.SeedUser(t, env.db, 75)
	env.requireReconciled(t)

	require.NoError(t, env.db.Model(&model.UserModel{}).
		Where("id = ?", drifted.ID).
		Update("credit_balance", 999).Error)

	discrepancies, err := env.ledger.Reconcile(ctx)
	require.NoError(t, err)
	require.Len(t, discrepancies, 1)
	assert.Equal(t, drifted.ID, discrepancies[0].UserID)
	assert.Equal(t, int64(999), discrepancies[0].Balance)
	assert.Equal(t, int64(75), discrepancies[0].LedgerSum)
	assert.NotEqual(t, healthy.ID, discrepancies[0].UserID)
}
