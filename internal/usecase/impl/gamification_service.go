package impl

import (
	"context"
	"fmt"
	"log/slog"

	deliverycontext "tradepost/internal/delivery/context"
	"tradepost/internal/domain/entity"
	"tradepost/internal/domain/repository"
	"tradepost/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// gamificationService implements the GamificationUsecase interface.
type gamificationService struct {
	ledger     usecase.LedgerUsecase
	dispatcher usecase.NotificationDispatcher
	logger     *slog.Logger
}

// GamificationServiceParams holds dependencies for GamificationService, injected by Fx.
type GamificationServiceParams struct {
	fx.In

	Ledger     usecase.LedgerUsecase
	Dispatcher usecase.NotificationDispatcher
	Logger     *slog.Logger
}

// NewGamificationService is the constructor for gamificationService.
func NewGamificationService(params GamificationServiceParams) usecase.GamificationUsecase {
	return &gamificationService{
		ledger:     params.Ledger,
		dispatcher: params.Dispatcher,
		logger:     params.Logger,
	}
}

func (srv *gamificationService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// ApplyPoints adds points to a locked user and pays one reward per level crossed.
func (srv *gamificationService) ApplyPoints(ctx context.Context, repos repository.RepositoryFactory, user *entity.User, delta int64, reason string) (*usecase.PointsResult, error) {
	oldLevel := entity.LevelForPoints(user.TradingPoints)
	result := &usecase.PointsResult{OldLevel: oldLevel, NewLevel: oldLevel, Points: user.TradingPoints}
	if delta <= 0 {
		return result, nil
	}

	if err := repos.PointsRepo().Record(ctx, &entity.PointsEvent{
		ID:     uuid.New(),
		UserID: user.ID,
		Delta:  delta,
		Reason: reason,
	}); err != nil {
		return nil, errors.Wrap(err, "failed to record points event")
	}

	user.TradingPoints += delta
	user.Level = entity.LevelForPoints(user.TradingPoints)
	result.Points = user.TradingPoints
	result.NewLevel = user.Level

	if err := repos.UserRepo().Update(ctx, user); err != nil {
		return nil, errors.Wrap(err, "failed to update trading points")
	}

	for level := oldLevel + 1; level <= result.NewLevel; level++ {
		if _, err := srv.ledger.Credit(ctx, repos, user, usecase.LedgerPosting{
			Amount: entity.LevelUpCreditReward,
			Kind:   entity.LedgerKindGamificationLevelUp,
			Reason: fmt.Sprintf("reached level %d", level),
		}); err != nil {
			return nil, errors.Wrap(err, "failed to credit level-up reward")
		}
		result.Credited += entity.LevelUpCreditReward

		tier := entity.TierForLevel(level)
		if _, err := srv.dispatcher.Dispatch(ctx, repos, &usecase.DispatchRequest{
			UserID:  user.ID,
			Kind:    entity.NotificationLevelUp,
			Message: fmt.Sprintf("You reached level %d (%s) and earned %d credits", level, tier, entity.LevelUpCreditReward),
			Payload: map[string]any{"level": level, "tier": string(tier), "credits": entity.LevelUpCreditReward},
			InApp:   true,
		}); err != nil {
			return nil, errors.Wrap(err, "failed to dispatch level-up notification")
		}
	}

	if result.NewLevel > oldLevel {
		srv.log(ctx).Info("User levelled up",
			slog.String("userID", user.ID.String()),
			slog.Int("from", oldLevel),
			slog.Int("to", result.NewLevel),
			slog.Int64("credited", result.Credited),
		)
	}

	return result, nil
}
