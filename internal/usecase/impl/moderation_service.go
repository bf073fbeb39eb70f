package impl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tradepost/config"
	deliverycontext "tradepost/internal/delivery/context"
	"tradepost/internal/domain/constants"
	"tradepost/internal/domain/entity"
	"tradepost/internal/domain/repository"
	"tradepost/internal/domain/service"
	"tradepost/internal/infra/metrics"
	"tradepost/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

const (
	moderationApprove = "approve"
	moderationReject  = "reject"
)

// moderationService runs the admin approve and reject workflows.
type moderationService struct {
	txManager      repository.TransactionManager
	ledger         usecase.LedgerUsecase
	gamification   usecase.GamificationUsecase
	referral       usecase.ReferralUsecase
	dispatcher     usecase.NotificationDispatcher
	audit          usecase.AuditUsecase
	publisher      service.JobPublisher
	clock          service.Clock
	approvalReward bool
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

// ModerationServiceParams holds dependencies for ModerationService, injected by Fx.
type ModerationServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	Ledger       usecase.LedgerUsecase
	Gamification usecase.GamificationUsecase
	Referral     usecase.ReferralUsecase
	Dispatcher   usecase.NotificationDispatcher
	Audit        usecase.AuditUsecase
	Publisher    service.JobPublisher
	Clock        service.Clock
	Config       *config.Config
	Metrics      *metrics.Metrics `optional:"true"`
	Logger       *slog.Logger
}

// NewModerationService is the constructor for moderationService.
func NewModerationService(params ModerationServiceParams) usecase.ModerationUsecase {
	approvalReward := false
	if params.Config != nil {
		approvalReward = params.Config.Marketplace.ApprovalRewardEnabled
	}

	return &moderationService{
		txManager:      params.TxManager,
		ledger:         params.Ledger,
		gamification:   params.Gamification,
		referral:       params.Referral,
		dispatcher:     params.Dispatcher,
		audit:          params.Audit,
		publisher:      params.Publisher,
		clock:          params.Clock,
		approvalReward: approvalReward,
		metrics:        params.Metrics,
		logger:         params.Logger,
	}
}

func (srv *moderationService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Approve lists a pending item at the given value. Points, referral bonus and
// the uploader notification commit with the approval; the wishlist match job
// and the audit entry follow the commit.
func (srv *moderationService) Approve(ctx context.Context, input *usecase.ApproveInput) (*entity.Item, error) {
	var (
		approved *entity.Item
		before   map[string]any
	)

	err := srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		item, err := repos.ItemRepo().FindByIDForUpdate(ctx, input.ItemID)
		if err != nil {
			return err
		}
		before = item.Snapshot()

		if err := item.Approve(input.Value, srv.clock.Now()); err != nil {
			return err
		}
		if err := repos.ItemRepo().Update(ctx, item); err != nil {
			return errors.Wrap(err, "failed to update item")
		}

		uploader, err := repos.UserRepo().FindByIDForUpdate(ctx, item.UploaderID)
		if err != nil {
			return errors.Wrap(err, "failed to lock uploader")
		}

		if srv.approvalReward {
			itemID := item.ID
			if _, err := srv.ledger.Credit(ctx, repos, uploader, usecase.LedgerPosting{
				Amount: item.AppraisedValue,
				Kind:   entity.LedgerKindApprovalReward,
				Reason: "item " + item.ItemNumber + " approved",
				Links:  entity.LedgerLinks{ItemID: &itemID},
			}); err != nil {
				return err
			}
		}

		if _, err := srv.gamification.ApplyPoints(ctx, repos, uploader, entity.PointsPerApprovedUpload, "item "+item.ItemNumber+" approved"); err != nil {
			return err
		}

		if !uploader.HasApprovedUpload {
			uploader.HasApprovedUpload = true
			if err := repos.UserRepo().Update(ctx, uploader); err != nil {
				return errors.Wrap(err, "failed to flag first approved upload")
			}
			if _, err := srv.referral.MaybeAward(ctx, repos, uploader.ID, entity.ReferralMilestoneFirstUpload); err != nil {
				return err
			}
		}

		if _, err := srv.dispatcher.Dispatch(ctx, repos, &usecase.DispatchRequest{
			UserID:  uploader.ID,
			Kind:    entity.NotificationItemApproved,
			Message: fmt.Sprintf("Your item %q was approved at %d credits", item.Name, item.AppraisedValue),
			Payload: map[string]any{"item_id": item.ID.String(), "item_number": item.ItemNumber, "value": item.AppraisedValue},
			InApp:   true,
			Email:   true,
		}); err != nil {
			return err
		}

		repos.AfterCommit(func(ctx context.Context) error {
			return srv.enqueueWishlistMatch(ctx, item.ID)
		})
		approved = item

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Approval failed", slog.String("itemID", input.ItemID.String()), slog.Any("error", err))

		return nil, err
	}

	srv.metrics.Moderation(moderationApprove)
	srv.audit.Log(ctx, &entity.AuditEntry{
		AdminID:    input.AdminID,
		Action:     entity.AuditActionApproveItem,
		TargetType: entity.AuditTargetItem,
		TargetID:   approved.ID,
		Before:     before,
		After:      approved.Snapshot(),
		Reason:     strings.TrimSpace(input.Notes),
		IP:         input.IP,
	})
	srv.log(ctx).Info("Item approved",
		slog.String("itemID", approved.ID.String()),
		slog.Int64("value", approved.AppraisedValue),
		slog.String("adminID", input.AdminID.String()),
	)

	return approved, nil
}

func (srv *moderationService) enqueueWishlistMatch(ctx context.Context, itemID uuid.UUID) error {
	job := &service.Job{
		RequestID: deliverycontext.GetRequestIDFromContext(ctx),
		JobID:     uuid.NewString(),
		Type:      constants.JobTypeWishlistMatch,
		ItemID:    itemID.String(),
	}
	if err := srv.publisher.PublishJob(ctx, job); err != nil {
		return errors.Wrapf(err, "failed to publish wishlist match job for item %s", itemID)
	}

	return nil
}

// Reject closes a pending item and tells the uploader why.
func (srv *moderationService) Reject(ctx context.Context, input *usecase.RejectInput) (*entity.Item, error) {
	var (
		rejected *entity.Item
		before   map[string]any
	)

	err := srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		item, err := repos.ItemRepo().FindByIDForUpdate(ctx, input.ItemID)
		if err != nil {
			return err
		}
		before = item.Snapshot()

		if err := item.Reject(input.Reason); err != nil {
			return err
		}
		if err := repos.ItemRepo().Update(ctx, item); err != nil {
			return errors.Wrap(err, "failed to update item")
		}

		if _, err := srv.dispatcher.Dispatch(ctx, repos, &usecase.DispatchRequest{
			UserID:  item.UploaderID,
			Kind:    entity.NotificationItemRejected,
			Message: fmt.Sprintf("Your item %q was rejected: %s", item.Name, item.RejectionReason),
			Payload: map[string]any{"item_id": item.ID.String(), "item_number": item.ItemNumber, "reason": item.RejectionReason},
			InApp:   true,
			Email:   true,
		}); err != nil {
			return err
		}
		rejected = item

		return nil
	})
	if err != nil {
		return nil, err
	}

	srv.metrics.Moderation(moderationReject)
	srv.audit.Log(ctx, &entity.AuditEntry{
		AdminID:    input.AdminID,
		Action:     entity.AuditActionRejectItem,
		TargetType: entity.AuditTargetItem,
		TargetID:   rejected.ID,
		Before:     before,
		After:      rejected.Snapshot(),
		Reason:     rejected.RejectionReason,
		IP:         input.IP,
	})
	srv.log(ctx).Info("Item rejected",
		slog.String("itemID", rejected.ID.String()),
		slog.String("adminID", input.AdminID.String()),
	)

	return rejected, nil
}
