package impl

import (
	"context"
	"fmt"
	"log/slog"

	deliverycontext "tradepost/internal/delivery/context"
	"tradepost/internal/domain/entity"
	"tradepost/internal/domain/repository"
	"tradepost/internal/domain/service"
	"tradepost/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

var milestoneLabels = map[entity.ReferralMilestone]string{
	entity.ReferralMilestoneSignup:        "completed their profile",
	entity.ReferralMilestoneFirstUpload:   "had their first item approved",
	entity.ReferralMilestoneFirstPurchase: "made their first purchase",
}

// referralService pays referrers once per milestone of the users they referred.
type referralService struct {
	userRepo     repository.UserRepository
	referralRepo repository.ReferralRepository
	ledger       usecase.LedgerUsecase
	dispatcher   usecase.NotificationDispatcher
	qrCode       service.QRCodeService
	clock        service.Clock
	logger       *slog.Logger
}

// ReferralServiceParams holds dependencies for ReferralService, injected by Fx.
type ReferralServiceParams struct {
	fx.In

	UserRepo     repository.UserRepository
	ReferralRepo repository.ReferralRepository
	Ledger       usecase.LedgerUsecase
	Dispatcher   usecase.NotificationDispatcher
	QRCode       service.QRCodeService
	Clock        service.Clock
	Logger       *slog.Logger
}

// NewReferralService is the constructor for referralService.
func NewReferralService(params ReferralServiceParams) usecase.ReferralUsecase {
	return &referralService{
		userRepo:     params.UserRepo,
		referralRepo: params.ReferralRepo,
		ledger:       params.Ledger,
		dispatcher:   params.Dispatcher,
		qrCode:       params.QRCode,
		clock:        params.Clock,
		logger:       params.Logger,
	}
}

func (srv *referralService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// MaybeAward credits the referrer of referredID for a milestone unless it was already paid.
// The referral row is locked, so the flag and the credit commit together.
func (srv *referralService) MaybeAward(ctx context.Context, repos repository.RepositoryFactory, referredID uuid.UUID, milestone entity.ReferralMilestone) (bool, error) {
	referral, err := repos.ReferralRepo().FindByReferredForUpdate(ctx, referredID)
	if err != nil {
		return false, errors.Wrap(err, "failed to find referral")
	}
	if referral == nil || referral.Awarded(milestone) {
		return false, nil
	}

	referrer, err := repos.UserRepo().FindByIDForUpdate(ctx, referral.ReferrerID)
	if err != nil {
		return false, errors.Wrap(err, "failed to lock referrer")
	}

	if _, err := srv.ledger.Credit(ctx, repos, referrer, usecase.LedgerPosting{
		Amount: entity.ReferralBonusCredits,
		Kind:   milestone.LedgerKind(),
		Reason: fmt.Sprintf("referral %s bonus for user %s", milestone, referredID),
	}); err != nil {
		return false, errors.Wrap(err, "failed to credit referral bonus")
	}

	referral.MarkAwarded(milestone, srv.clock.Now())
	if err := repos.ReferralRepo().Update(ctx, referral); err != nil {
		return false, errors.Wrap(err, "failed to flag referral bonus")
	}

	if _, err := srv.dispatcher.Dispatch(ctx, repos, &usecase.DispatchRequest{
		UserID:  referrer.ID,
		Kind:    entity.NotificationReferralBonus,
		Message: fmt.Sprintf("Someone you referred %s. You earned %d credits", milestoneLabels[milestone], entity.ReferralBonusCredits),
		Payload: map[string]any{"milestone": string(milestone), "credits": entity.ReferralBonusCredits},
		InApp:   true,
		Email:   true,
	}); err != nil {
		return false, errors.Wrap(err, "failed to dispatch referral notification")
	}

	srv.log(ctx).Info("Referral bonus awarded",
		slog.String("referrerID", referrer.ID.String()),
		slog.String("referredID", referredID.String()),
		slog.String("milestone", string(milestone)),
	)

	return true, nil
}

// Summary returns the user's referral code, link and referred count.
func (srv *referralService) Summary(ctx context.Context, userID uuid.UUID) (*entity.ReferralSummary, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user")
	}

	count, err := srv.referralRepo.CountByReferrer(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to count referrals")
	}

	return &entity.ReferralSummary{
		Code:          user.ReferralCode,
		Link:          srv.qrCode.ReferralLink(user.ReferralCode),
		ReferredCount: count,
	}, nil
}

// QRCode renders the user's signup link as a PNG.
func (srv *referralService) QRCode(ctx context.Context, userID uuid.UUID) ([]byte, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find user")
	}

	png, err := srv.qrCode.GenerateReferralQR(user.ReferralCode)
	if err != nil {
		return nil, errors.Wrap(err, "failed to render referral QR code")
	}

	return png, nil
}
