package repository

import "context"

// TransactionManager defines the interface for managing database transactions.
// This allows the use case layer to handle transactions without depending on a specific DB driver like GORM.
type TransactionManager interface {
	// Execute runs a function within a database transaction.
	// If the function returns an error, the transaction is rolled back. Otherwise, it's committed.
	// All repository operations within the function will use the same database transaction.
	// Hooks registered through AfterCommit run after a successful commit, in registration order.
	Execute(ctx context.Context, fn func(txRepoFactory RepositoryFactory) error) error
}

// AfterCommitHook is work deferred until the surrounding transaction commits.
// Its error is logged and never affects the commit.
type AfterCommitHook func(ctx context.Context) error

// RepositoryFactory provides a way to get repository instances that are bound to a specific transaction.
// This ensures all repository operations within a transaction use the same database connection.
type RepositoryFactory interface {
	UserRepo() UserRepository
	ItemRepo() ItemRepository
	LedgerRepo() LedgerRepository
	OrderRepo() OrderRepository
	CartRepo() CartRepository
	PointsRepo() PointsRepository
	WishlistRepo() WishlistRepository
	NotificationRepo() NotificationRepository
	ReferralRepo() ReferralRepository
	AuditRepo() AuditRepository
	DeviceRepo() DeviceRepository

	// AfterCommit registers a hook that runs only if the transaction commits.
	AfterCommit(hook AfterCommitHook)
}
