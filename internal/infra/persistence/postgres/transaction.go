package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"tradepost/internal/domain/repository"

	"gorm.io/gorm"
)

// gormTransactionManager implements the domain's TransactionManager interface using GORM.
type gormTransactionManager struct {
	db     *gorm.DB
	logger *slog.Logger
}

// gormRepositoryFactory implements the domain's RepositoryFactory interface.
// It holds a specific GORM transaction object and uses it to create
// repository instances that are bound to that single transaction.
type gormRepositoryFactory struct {
	tx    *gorm.DB // In GORM, a transaction object is also a *gorm.DB
	hooks []repository.AfterCommitHook
}

func (f *gormRepositoryFactory) UserRepo() repository.UserRepository { return NewUserRepository(f.tx) }

func (f *gormRepositoryFactory) ItemRepo() repository.ItemRepository { return NewItemRepository(f.tx) }

func (f *gormRepositoryFactory) LedgerRepo() repository.LedgerRepository {
	return NewLedgerRepository(f.tx)
}

func (f *gormRepositoryFactory) OrderRepo() repository.OrderRepository {
	return NewOrderRepository(f.tx)
}

func (f *gormRepositoryFactory) CartRepo() repository.CartRepository { return NewCartRepository(f.tx) }

func (f *gormRepositoryFactory) PointsRepo() repository.PointsRepository {
	return NewPointsRepository(f.tx)
}

func (f *gormRepositoryFactory) WishlistRepo() repository.WishlistRepository {
	return NewWishlistRepository(f.tx)
}

func (f *gormRepositoryFactory) NotificationRepo() repository.NotificationRepository {
	return NewNotificationRepository(f.tx)
}

func (f *gormRepositoryFactory) ReferralRepo() repository.ReferralRepository {
	return NewReferralRepository(f.tx)
}

func (f *gormRepositoryFactory) AuditRepo() repository.AuditRepository {
	return NewAuditRepository(f.tx)
}

func (f *gormRepositoryFactory) DeviceRepo() repository.DeviceRepository {
	return NewDeviceRepository(f.tx)
}

// AfterCommit queues a hook for the commit of this transaction.
func (f *gormRepositoryFactory) AfterCommit(hook repository.AfterCommitHook) {
	if hook == nil {
		return
	}
	f.hooks = append(f.hooks, hook)
}

// NewTransactionManager is the constructor for gormTransactionManager.
// This function will be used as an Fx provider.
func NewTransactionManager(db *gorm.DB, logger *slog.Logger) repository.TransactionManager {
	return &gormTransactionManager{db: db, logger: logger}
}

// Execute runs the given function within a single database transaction.
func (tm *gormTransactionManager) Execute(ctx context.Context, fn func(repoFactory repository.RepositoryFactory) error) error {
	// Begin a new transaction
	tx := tm.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	// If a panic occurs within the callback the transaction is rolled back before re-panicking.
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	// Create a repository factory that is bound to this specific transaction.
	factory := &gormRepositoryFactory{tx: tx}

	if err := fn(factory); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			return fmt.Errorf("transaction rollback failed: %v (original error: %w)", rbErr, err)
		}

		return err // Return the original business error.
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	tm.runAfterCommit(ctx, factory.hooks)

	return nil
}

// runAfterCommit runs the queued hooks in order. The request may already be
// gone, so hooks get a context that is never cancelled.
func (tm *gormTransactionManager) runAfterCommit(ctx context.Context, hooks []repository.AfterCommitHook) {
	hookCtx := context.WithoutCancel(ctx)
	for i, hook := range hooks {
		if err := tm.runHook(hookCtx, hook); err != nil && tm.logger != nil {
			tm.logger.ErrorContext(hookCtx, "After-commit hook failed",
				slog.Int("hook", i),
				slog.Any("error", err),
			)
		}
	}
}

// runHook turns a panicking hook into an error so the rest still run.
func (tm *gormTransactionManager) runHook(ctx context.Context, hook repository.AfterCommitHook) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("after-commit hook panicked: %v\n%s", r, debug.Stack())
		}
	}()

	return hook(ctx)
}
