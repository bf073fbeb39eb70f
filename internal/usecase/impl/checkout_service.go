package impl

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	deliverycontext "tradepost/internal/delivery/context"
	"tradepost/internal/domain/entity"
	domainerrors "tradepost/internal/domain/errors"
	"tradepost/internal/domain/repository"
	"tradepost/internal/domain/service"
	"tradepost/internal/infra/metrics"
	"tradepost/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// checkoutReplayWindow is how long a resubmitted checkout token returns the earlier order.
const checkoutReplayWindow = 10 * time.Second

// checkoutService implements the CheckoutUsecase interface.
type checkoutService struct {
	txManager    repository.TransactionManager
	ledger       usecase.LedgerUsecase
	gamification usecase.GamificationUsecase
	referral     usecase.ReferralUsecase
	dispatcher   usecase.NotificationDispatcher
	clock        service.Clock
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// CheckoutServiceParams holds dependencies for CheckoutService, injected by Fx.
type CheckoutServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	Ledger       usecase.LedgerUsecase
	Gamification usecase.GamificationUsecase
	Referral     usecase.ReferralUsecase
	Dispatcher   usecase.NotificationDispatcher
	Clock        service.Clock
	Metrics      *metrics.Metrics `optional:"true"`
	Logger       *slog.Logger
}

// NewCheckoutService is the constructor for checkoutService.
func NewCheckoutService(params CheckoutServiceParams) usecase.CheckoutUsecase {
	return &checkoutService{
		txManager:    params.TxManager,
		ledger:       params.Ledger,
		gamification: params.Gamification,
		referral:     params.Referral,
		dispatcher:   params.Dispatcher,
		clock:        params.Clock,
		metrics:      params.Metrics,
		logger:       params.Logger,
	}
}

func (srv *checkoutService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Checkout buys every item in the buyer's cart as one order. The buyer row is
// locked first and the items in id order, so concurrent checkouts serialise.
func (srv *checkoutService) Checkout(ctx context.Context, input *usecase.CheckoutInput) (*usecase.CheckoutOutput, error) {
	token := strings.TrimSpace(input.Token)
	if token == "" {
		return nil, domainerrors.NewValidationError("token", "required")
	}
	delivery, err := input.Delivery.Normalize()
	if err != nil {
		srv.metrics.Checkout(metrics.ResultFailure)

		return nil, err
	}

	var out *usecase.CheckoutOutput
	err = srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		buyer, err := repos.UserRepo().FindByIDForUpdate(ctx, input.BuyerID)
		if err != nil {
			return errors.Wrap(err, "failed to lock buyer")
		}
		if buyer.Banned {
			return domainerrors.ErrUserBanned
		}

		now := srv.clock.Now()
		if orderID, ok := replayedOrder(buyer, token, now); ok {
			out = &usecase.CheckoutOutput{OrderID: orderID, Replayed: true}

			return nil
		}

		order, err := srv.placeOrder(ctx, repos, buyer, delivery, token, now)
		if err != nil {
			return err
		}
		out = &usecase.CheckoutOutput{OrderID: order.ID}

		repos.AfterCommit(func(ctx context.Context) error {
			return srv.afterPurchase(ctx, order)
		})

		return nil
	})
	if err != nil {
		srv.metrics.Checkout(metrics.ResultFailure)
		srv.log(ctx).Warn("Checkout failed", slog.String("buyerID", input.BuyerID.String()), slog.Any("error", err))

		return nil, err
	}

	if out.Replayed {
		srv.metrics.Checkout(metrics.ResultReplay)
		srv.log(ctx).Info("Checkout replayed", slog.String("orderID", out.OrderID.String()))
	} else {
		srv.metrics.Checkout(metrics.ResultSuccess)
		srv.log(ctx).Info("Checkout completed", slog.String("orderID", out.OrderID.String()))
	}

	return out, nil
}

func replayedOrder(buyer *entity.User, token string, now time.Time) (uuid.UUID, bool) {
	if buyer.LastCheckoutToken != token || buyer.LastCheckoutAt == nil || buyer.LastCheckoutOrderID == nil {
		return uuid.Nil, false
	}
	if now.Sub(*buyer.LastCheckoutAt) >= checkoutReplayWindow {
		return uuid.Nil, false
	}

	return *buyer.LastCheckoutOrderID, true
}

func (srv *checkoutService) placeOrder(
	ctx context.Context,
	repos repository.RepositoryFactory,
	buyer *entity.User,
	delivery entity.Delivery,
	token string,
	now time.Time,
) (*entity.Order, error) {
	cartItems, err := repos.CartRepo().ListByUser(ctx, buyer.ID)
	if err != nil {
		return nil, err
	}
	if len(cartItems) == 0 {
		return nil, domainerrors.ErrCartEmpty
	}

	ids := make([]uuid.UUID, 0, len(cartItems))
	for _, ci := range cartItems {
		ids = append(ids, ci.ItemID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	items := make([]*entity.Item, 0, len(ids))
	var total int64
	for _, id := range ids {
		item, err := repos.ItemRepo().FindByIDForUpdate(ctx, id)
		if errors.Is(err, domainerrors.ErrItemNotFound) {
			return nil, domainerrors.NewItemNotAvailableError(id)
		}
		if err != nil {
			return nil, errors.Wrap(err, "failed to lock item")
		}
		if !item.Listed() {
			return nil, domainerrors.NewItemNotAvailableError(id)
		}
		if item.UploaderID == buyer.ID {
			return nil, domainerrors.ErrOwnItem
		}
		items = append(items, item)
		total += item.AppraisedValue
	}

	orderID := uuid.New()
	if _, err := srv.ledger.Debit(ctx, repos, buyer, usecase.LedgerPosting{
		Amount: total,
		Kind:   entity.LedgerKindPurchaseDebit,
		Reason: fmt.Sprintf("order %s", orderID),
		Links:  entity.LedgerLinks{OrderID: &orderID},
	}); err != nil {
		return nil, err
	}

	order := &entity.Order{
		ID:            orderID,
		BuyerID:       buyer.ID,
		Total:         total,
		Delivery:      delivery,
		Status:        entity.OrderStatusProcessing,
		CheckoutToken: token,
	}
	for _, item := range items {
		if err := item.TransferTo(buyer.ID); err != nil {
			return nil, err
		}
		if err := repos.ItemRepo().Update(ctx, item); err != nil {
			return nil, errors.Wrap(err, "failed to transfer item")
		}
		order.Items = append(order.Items, &entity.OrderItem{
			ID:         uuid.New(),
			OrderID:    orderID,
			ItemID:     item.ID,
			ItemNumber: item.ItemNumber,
			Name:       item.Name,
			Value:      item.AppraisedValue,
			Condition:  item.Condition,
			Category:   item.Category,
			Quantity:   1,
		})
	}

	if err := repos.OrderRepo().Create(ctx, order); err != nil {
		return nil, errors.Wrap(err, "failed to create order")
	}
	if err := repos.CartRepo().Clear(ctx, buyer.ID); err != nil {
		return nil, err
	}

	buyer.HasPurchased = true
	buyer.LastCheckoutToken = token
	buyer.LastCheckoutAt = &now
	buyer.LastCheckoutOrderID = &orderID
	if err := repos.UserRepo().Update(ctx, buyer); err != nil {
		return nil, errors.Wrap(err, "failed to record checkout token")
	}

	return order, nil
}

// afterPurchase awards points, tells the buyer and pays a pending first purchase
// referral bonus. It runs in its own transaction after the order committed.
func (srv *checkoutService) afterPurchase(ctx context.Context, order *entity.Order) error {
	return srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		buyer, err := repos.UserRepo().FindByIDForUpdate(ctx, order.BuyerID)
		if err != nil {
			return err
		}

		if _, err := srv.gamification.ApplyPoints(ctx, repos, buyer, entity.PointsPerPurchase, "order "+order.ID.String()); err != nil {
			return err
		}

		if _, err := srv.dispatcher.Dispatch(ctx, repos, &usecase.DispatchRequest{
			UserID:  buyer.ID,
			Kind:    entity.NotificationOrderPlaced,
			Message: fmt.Sprintf("Your order of %d item(s) for %d credits was placed", len(order.Items), order.Total),
			Payload: map[string]any{"order_id": order.ID.String(), "total": order.Total},
			InApp:   true,
			Email:   true,
		}); err != nil {
			return err
		}

		_, err = srv.referral.MaybeAward(ctx, repos, buyer.ID, entity.ReferralMilestoneFirstPurchase)

		return err
	})
}
