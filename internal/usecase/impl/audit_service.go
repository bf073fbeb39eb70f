package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "tradepost/internal/delivery/context"
	"tradepost/internal/domain/entity"
	domainerrors "tradepost/internal/domain/errors"
	"tradepost/internal/domain/repository"
	"tradepost/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// auditService writes outside any business transaction so a failed insert never undoes the action.
type auditService struct {
	auditRepo repository.AuditRepository
	logger    *slog.Logger
}

// AuditServiceParams holds dependencies for AuditService, injected by Fx.
type AuditServiceParams struct {
	fx.In

	AuditRepo repository.AuditRepository
	Logger    *slog.Logger
}

// NewAuditService is the constructor for auditService.
func NewAuditService(params AuditServiceParams) usecase.AuditUsecase {
	return &auditService{auditRepo: params.AuditRepo, logger: params.Logger}
}

func (srv *auditService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Log appends an entry. Errors are logged and swallowed.
func (srv *auditService) Log(ctx context.Context, entry *entity.AuditEntry) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	if err := srv.auditRepo.Create(ctx, entry); err != nil {
		srv.log(ctx).Error("Failed to write audit entry",
			slog.String("action", string(entry.Action)),
			slog.String("targetType", entry.TargetType),
			slog.String("targetID", entry.TargetID.String()),
			slog.String("adminID", entry.AdminID.String()),
			slog.Any("error", err),
		)
	}
}

func (srv *auditService) ListByTarget(ctx context.Context, targetType string, targetID uuid.UUID) ([]*entity.AuditEntry, error) {
	switch targetType {
	case entity.AuditTargetItem, entity.AuditTargetOrder, entity.AuditTargetUser:
	default:
		return nil, domainerrors.NewValidationError("target_type", "must be item, order or user")
	}

	entries, err := srv.auditRepo.ListByTarget(ctx, targetType, targetID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list audit entries by target")
	}

	return entries, nil
}

// ListByAdmin returns an admin's actions in [from, to). A zero to means now.
func (srv *auditService) ListByAdmin(ctx context.Context, adminID uuid.UUID, from, to time.Time) ([]*entity.AuditEntry, error) {
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if !from.Before(to) {
		return nil, domainerrors.NewValidationError("from", "must be before to")
	}

	entries, err := srv.auditRepo.ListByAdmin(ctx, adminID, from, to)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list audit entries by admin")
	}

	return entries, nil
}
