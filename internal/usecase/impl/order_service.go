package impl

import (
	"context"
	"fmt"
	"log/slog"

	deliverycontext "tradepost/internal/delivery/context"
	"tradepost/internal/domain/entity"
	domainerrors "tradepost/internal/domain/errors"
	"tradepost/internal/domain/repository"
	"tradepost/internal/domain/service"
	"tradepost/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// orderService implements the OrderUsecase interface.
type orderService struct {
	txManager  repository.TransactionManager
	orderRepo  repository.OrderRepository
	ledger     usecase.LedgerUsecase
	dispatcher usecase.NotificationDispatcher
	audit      usecase.AuditUsecase
	clock      service.Clock
	logger     *slog.Logger
}

// OrderServiceParams holds dependencies for OrderService, injected by Fx.
type OrderServiceParams struct {
	fx.In

	TxManager  repository.TransactionManager
	OrderRepo  repository.OrderRepository
	Ledger     usecase.LedgerUsecase
	Dispatcher usecase.NotificationDispatcher
	Audit      usecase.AuditUsecase
	Clock      service.Clock
	Logger     *slog.Logger
}

// NewOrderService is the constructor for orderService.
func NewOrderService(params OrderServiceParams) usecase.OrderUsecase {
	return &orderService{
		txManager:  params.TxManager,
		orderRepo:  params.OrderRepo,
		ledger:     params.Ledger,
		dispatcher: params.Dispatcher,
		audit:      params.Audit,
		clock:      params.Clock,
		logger:     params.Logger,
	}
}

func (srv *orderService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *orderService) ListOrders(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]*entity.Order, error) {
	limit, offset = clampPage(limit, offset)

	orders, err := srv.orderRepo.ListByBuyer(ctx, buyerID, limit, offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list orders")
	}

	return orders, nil
}

// GetOrder returns an order of the buyer. Other buyers' orders look missing.
func (srv *orderService) GetOrder(ctx context.Context, buyerID, orderID uuid.UUID) (*entity.Order, error) {
	order, err := srv.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, domainerrors.ErrOrderNotFound
	}

	return order, nil
}

func orderSnapshot(o *entity.Order) map[string]any {
	return map[string]any{
		"status":              string(o.Status),
		"total":               o.Total,
		"cancellation_reason": o.CancellationReason,
	}
}

// UpdateStatus moves an order one step forward or cancels it. Cancelling
// refunds the buyer with one entry and relists every item of the order.
func (srv *orderService) UpdateStatus(ctx context.Context, input *usecase.UpdateOrderStatusInput) (*entity.Order, error) {
	var (
		updated *entity.Order
		before  map[string]any
	)

	err := srv.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		order, err := repos.OrderRepo().FindByIDForUpdate(ctx, input.OrderID)
		if err != nil {
			return err
		}
		before = orderSnapshot(order)

		if err := order.Transition(input.Status, input.Reason, srv.clock.Now()); err != nil {
			return err
		}
		if err := repos.OrderRepo().Update(ctx, order); err != nil {
			return errors.Wrap(err, "failed to update order")
		}

		message := fmt.Sprintf("Your order %s is now %s", order.ID, order.Status)
		if order.Status == entity.OrderStatusCancelled {
			if err := srv.cancel(ctx, repos, order); err != nil {
				return err
			}
			message = fmt.Sprintf("Your order %s was cancelled (%s). %d credits were refunded", order.ID, order.CancellationReason, order.Total)
		}

		if _, err := srv.dispatcher.Dispatch(ctx, repos, &usecase.DispatchRequest{
			UserID:  order.BuyerID,
			Kind:    entity.NotificationOrderStatus,
			Message: message,
			Payload: map[string]any{"order_id": order.ID.String(), "status": string(order.Status)},
			InApp:   true,
			Email:   true,
		}); err != nil {
			return err
		}
		updated = order

		return nil
	})
	if err != nil {
		return nil, err
	}

	action := entity.AuditActionOrderStatus
	if updated.Status == entity.OrderStatusCancelled {
		action = entity.AuditActionCancelOrder
	}
	srv.audit.Log(ctx, &entity.AuditEntry{
		AdminID:    input.AdminID,
		Action:     action,
		TargetType: entity.AuditTargetOrder,
		TargetID:   updated.ID,
		Before:     before,
		After:      orderSnapshot(updated),
		Reason:     updated.CancellationReason,
		IP:         input.IP,
	})
	srv.log(ctx).Info("Order status updated",
		slog.String("orderID", updated.ID.String()),
		slog.String("status", string(updated.Status)),
		slog.String("adminID", input.AdminID.String()),
	)

	return updated, nil
}

func (srv *orderService) cancel(ctx context.Context, repos repository.RepositoryFactory, order *entity.Order) error {
	buyer, err := repos.UserRepo().FindByIDForUpdate(ctx, order.BuyerID)
	if err != nil {
		return errors.Wrap(err, "failed to lock buyer")
	}

	orderID := order.ID
	if _, err := srv.ledger.Credit(ctx, repos, buyer, usecase.LedgerPosting{
		Amount: order.Total,
		Kind:   entity.LedgerKindRefund,
		Reason: fmt.Sprintf("order %s cancelled", order.ID),
		Links:  entity.LedgerLinks{OrderID: &orderID},
	}); err != nil {
		return err
	}

	for _, line := range order.Items {
		item, err := repos.ItemRepo().FindByIDForUpdate(ctx, line.ItemID)
		if err != nil {
			return errors.Wrap(err, "failed to lock order item")
		}
		if err := item.Relist(); err != nil {
			return err
		}
		if err := repos.ItemRepo().Update(ctx, item); err != nil {
			return errors.Wrap(err, "failed to relist item")
		}
	}

	return nil
}
