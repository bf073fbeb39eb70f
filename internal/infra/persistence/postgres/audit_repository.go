package postgres

import (
	"context"
	"encoding/json"
	"time"

	"tradepost/internal/domain/entity"
	domainerrors "tradepost/internal/domain/errors"
	"tradepost/internal/domain/repository"
	"tradepost/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// auditRepository implements the append-only repository.AuditRepository interface.
type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository is the constructor for auditRepository.
func NewAuditRepository(db *gorm.DB) repository.AuditRepository {
	return &auditRepository{db: db}
}

// Create inserts an audit entry.
func (repo *auditRepository) Create(ctx context.Context, entry *entity.AuditEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	before, err := encodeSnapshot(entry.Before)
	if err != nil {
		return err
	}
	after, err := encodeSnapshot(entry.After)
	if err != nil {
		return err
	}

	entryM := &model.AuditLogModel{
		ID:         entry.ID,
		AdminID:    entry.AdminID,
		Action:     string(entry.Action),
		TargetType: entry.TargetType,
		TargetID:   entry.TargetID,
		Before:     before,
		After:      after,
		Reason:     entry.Reason,
		IP:         entry.IP,
		CreatedAt:  entry.CreatedAt,
	}
	if err := repo.db.WithContext(ctx).Create(entryM).Error; err != nil {
		return domainerrors.NewDatabaseExecuteError(err, "failed to write audit entry")
	}
	entry.CreatedAt = entryM.CreatedAt

	return nil
}

// ListByTarget returns the entries of one target newest first.
func (repo *auditRepository) ListByTarget(ctx context.Context, targetType string, targetID uuid.UUID) ([]*entity.AuditEntry, error) {
	return repo.list(repo.db.WithContext(ctx).
		Where("target_type = ? AND target_id = ?", targetType, targetID))
}

// ListByAdmin returns an admin's entries within [from, to) newest first.
func (repo *auditRepository) ListByAdmin(ctx context.Context, adminID uuid.UUID, from, to time.Time) ([]*entity.AuditEntry, error) {
	return repo.list(repo.db.WithContext(ctx).
		Where("admin_id = ? AND created_at >= ? AND created_at < ?", adminID, from, to))
}

func (repo *auditRepository) list(db *gorm.DB) ([]*entity.AuditEntry, error) {
	var entryModels []*model.AuditLogModel
	if err := db.Order("created_at DESC").Find(&entryModels).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list audit entries")
	}

	entries := make([]*entity.AuditEntry, 0, len(entryModels))
	for _, m := range entryModels {
		entries = append(entries, &entity.AuditEntry{
			ID:         m.ID,
			AdminID:    m.AdminID,
			Action:     entity.AuditAction(m.Action),
			TargetType: m.TargetType,
			TargetID:   m.TargetID,
			Before:     decodeSnapshot(m.Before),
			After:      decodeSnapshot(m.After),
			Reason:     m.Reason,
			IP:         m.IP,
			CreatedAt:  m.CreatedAt,
		})
	}

	return entries, nil
}

func encodeSnapshot(snapshot map[string]any) (datatypes.JSON, error) {
	if snapshot == nil {
		return nil, nil
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode audit snapshot")
	}

	return datatypes.JSON(raw), nil
}

func decodeSnapshot(raw datatypes.JSON) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var snapshot map[string]any
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil
	}

	return snapshot
}
