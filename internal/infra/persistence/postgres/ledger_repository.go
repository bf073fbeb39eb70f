package postgres

import (
	"context"

	"tradepost/internal/domain/entity"
	domainerrors "tradepost/internal/domain/errors"
	"tradepost/internal/domain/repository"
	"tradepost/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const discrepancyQuery = `
SELECT u.id AS user_id, u.credit_balance AS balance, COALESCE(SUM(l.amount), 0) AS ledger_sum
FROM users u
LEFT JOIN credit_ledger_entries l ON l.user_id = u.id
GROUP BY u.id, u.credit_balance
HAVING u.credit_balance <> COALESCE(SUM(l.amount), 0)
ORDER BY u.id`

// ledgerRepository implements the repository.LedgerRepository interface.
// It only ever inserts rows.
type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository is the constructor for ledgerRepository.
func NewLedgerRepository(db *gorm.DB) repository.LedgerRepository {
	return &ledgerRepository{db: db}
}

// Append inserts a new ledger entry.
func (repo *ledgerRepository) Append(ctx context.Context, entry *entity.LedgerEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entryM := fromLedgerDomain(entry)

	if err := repo.db.WithContext(ctx).Create(entryM).Error; err != nil {
		if isCheckConstraintViolation(err) {
			return domainerrors.NewInsufficientCreditsError(-entry.Amount, entry.BalanceBefore)
		}

		return domainerrors.NewDatabaseExecuteError(err, "failed to append ledger entry")
	}
	entry.CreatedAt = entryM.CreatedAt

	return nil
}

// ListByUser returns a user's entries newest first.
func (repo *ledgerRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*entity.LedgerEntry, error) {
	var entryModels []*model.LedgerEntryModel
	if err := repo.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(pageLimit(limit)).
		Offset(max(offset, 0)).
		Find(&entryModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list ledger entries")
	}

	entries := make([]*entity.LedgerEntry, 0, len(entryModels))
	for _, entryM := range entryModels {
		entries = append(entries, toLedgerDomain(entryM))
	}

	return entries, nil
}

// SumByUser returns the sum of all entry amounts of a user.
func (repo *ledgerRepository) SumByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var sum int64
	if err := repo.db.WithContext(ctx).
		Model(&model.LedgerEntryModel{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error; err != nil {
		return 0, errors.Wrap(err, "failed to sum ledger entries")
	}

	return sum, nil
}

// FindDiscrepancies returns users whose stored balance differs from their ledger sum.
func (repo *ledgerRepository) FindDiscrepancies(ctx context.Context) ([]entity.BalanceDiscrepancy, error) {
	var rows []entity.BalanceDiscrepancy
	if err := repo.db.WithContext(ctx).Raw(discrepancyQuery).Scan(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "failed to reconcile balances")
	}

	return rows, nil
}

// --- Mapper Functions ---

func toLedgerDomain(data *model.LedgerEntryModel) *entity.LedgerEntry {
	if data == nil {
		return nil
	}

	return &entity.LedgerEntry{
		ID:            data.ID,
		UserID:        data.UserID,
		Amount:        data.Amount,
		Kind:          entity.LedgerKind(data.Kind),
		Reason:        data.Reason,
		BalanceBefore: data.BalanceBefore,
		BalanceAfter:  data.BalanceAfter,
		OrderID:       data.OrderID,
		ItemID:        data.ItemID,
		CreatedAt:     data.CreatedAt,
	}
}

func fromLedgerDomain(data *entity.LedgerEntry) *model.LedgerEntryModel {
	if data == nil {
		return nil
	}

	return &model.LedgerEntryModel{
		ID:            data.ID,
		UserID:        data.UserID,
		Amount:        data.Amount,
		Kind:          string(data.Kind),
		Reason:        data.Reason,
		BalanceBefore: data.BalanceBefore,
		BalanceAfter:  data.BalanceAfter,
		OrderID:       data.OrderID,
		ItemID:        data.ItemID,
		CreatedAt:     data.CreatedAt,
	}
}
