package impl

import (
	"context"
	"testing"

	"tradepost/internal/domain/entity"
	domainerrors "tradepost/internal/domain/errors"
	"tradepost/internal/testutil"
	"tradepost/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrder_ForwardTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := testutil.SeedAdmin(t, env.db)
	uploader := testutil.SeedUser(t, env.db, 0)
	buyer := testutil.SeedUser(t, env.db, 500)
	item := testutil.SeedItem(t, env.db, uploader, "Sewing machine", entity.ItemStateApproved, 100)
	out := env.buy(t, buyer, "tok", item.ID)

	move := func(status entity.OrderStatus, reason string) (*entity.Order, error) {
		return env.orders.UpdateStatus(ctx, &usecase.UpdateOrderStatusInput{
			AdminAction: usecase.AdminAction{AdminID: admin.ID},
			OrderID:     out.OrderID,
			Status:      status,
			Reason:      reason,
		})
	}

	_, err := move(entity.OrderStatusDelivered, "")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidOrderTransition)

	order, err := move(entity.OrderStatusShipped, "")
	require.NoError(t, err)
	require.NotNil(t, order.ShippedAt)

	order, err = move(entity.OrderStatusDelivered, "")
	require.NoError(t, err)
	require.NotNil(t, order.DeliveredAt)

	_, err = move(entity.OrderStatusCancelled, "changed my mind")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidOrderTransition)

	order, err = move(entity.OrderStatusCompleted, "")
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCompleted, order.Status)

	_, err = move(entity.OrderStatusShipped, "")
	assert.ErrorIs(t, err, domainerrors.ErrInvalidOrderTransition)

	assert.Len(t, env.notificationsOfKind(t, buyer.ID, entity.NotificationOrderStatus), 3)
	assert.Equal(t, entity.ItemStateSold, env.item(t, item.ID).State)
}

func TestOrder_CancelRefundsOnceAndRelists(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := testutil.SeedAdmin(t, env.db)
	uploader := testutil.SeedUser(t, env.db, 0)
	buyer := testutil.SeedUser(t, env.db, 500)
	first := testutil.SeedItem(t, env.db, uploader, "Vinyl record", entity.ItemStateApproved, 120)
	second := testutil.SeedItem(t, env.db, uploader, "Record player", entity.ItemStateApproved, 180)
	out := env.buy(t, buyer, "tok", first.ID, second.ID)

	assert.Equal(t, int64(200), env.user(t, buyer.ID).CreditBalance)

	input := &usecase.UpdateOrderStatusInput{
		AdminAction: usecase.AdminAction{AdminID: admin.ID, IP: "10.0.0.1"},
		OrderID:     out.OrderID,
		Status:      entity.OrderStatusCancelled,
	}
	_, err := env.orders.UpdateStatus(ctx, input)
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)

	input.Reason = "out of stock at station"
	order, err := env.orders.UpdateStatus(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCancelled, order.Status)
	require.NotNil(t, order.CancelledAt)

	assert.Equal(t, int64(500), env.user(t, buyer.ID).CreditBalance)
	refunds := env.entriesOfKind(t, buyer.ID, entity.LedgerKindRefund)
	require.Len(t, refunds, 1)
	assert.Equal(t, int64(300), refunds[0].Amount)

	for _, it := range []*entity.Item{env.item(t, first.ID), env.item(t, second.ID)} {
		assert.True(t, it.Listed())
		assert.Equal(t, uploader.ID, it.OwnerID)
	}
	assert.Equal(t, int64(120), env.item(t, first.ID).AppraisedValue)

	_, err = env.orders.UpdateStatus(ctx, input)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidOrderTransition)
	assert.Len(t, env.entriesOfKind(t, buyer.ID, entity.LedgerKindRefund), 1)

	audit, err := env.audit.ListByTarget(ctx, entity.AuditTargetOrder, out.OrderID)
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, entity.AuditActionCancelOrder, audit[0].Action)
	assert.Equal(t, "out of stock at station", audit[0].Reason)

	env.requireReconciled(t)
}

func TestOrder_ReadsAreScopedToBuyer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	uploader := testutil.SeedUser(t, env.db, 0)
	buyer := testutil.SeedUser(t, env.db, 500)
	stranger := testutil.SeedUser(t, env.db, 0)
	item := testutil.SeedItem(t, env.db, uploader, "Ukulele", entity.ItemStateApproved, 70)
	out := env.buy(t, buyer, "tok", item.ID)

	_, err := env.orders.GetOrder(ctx, stranger.ID, out.OrderID)
	assert.ErrorIs(t, err, domainerrors.ErrOrderNotFound)

	orders, err := env.orders.ListOrders(ctx, buyer.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, out.OrderID, orders[0].ID)

	orders, err = env.orders.ListOrders(ctx, stranger.ID, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, orders)
}
