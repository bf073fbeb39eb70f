package impl

import (
	"context"
	"testing"

	"tradepost/internal/domain/constants"
	"tradepost/internal/domain/entity"
	domainerrors "tradepost/internal/domain/errors"
	"tradepost/internal/testutil"
	"tradepost/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeration_ApprovePublishesWishlistJob(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := testutil.SeedAdmin(t, env.db)
	uploader := testutil.SeedUser(t, env.db, 0)
	item := testutil.SeedItem(t, env.db, uploader, "Mechanical keyboard", entity.ItemStatePending, 0)

	approved := env.approve(t, admin, item.ID, 120)
	assert.Equal(t, entity.ItemStateApproved, approved.State)
	assert.Equal(t, int64(120), approved.AppraisedValue)
	assert.True(t, approved.IsVisible)
	require.NotNil(t, approved.ApprovedAt)

	jobs := env.publishedJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, constants.JobTypeWishlistMatch, jobs[0].Type)
	assert.Equal(t, item.ID.String(), jobs[0].ItemID)

	assert.True(t, env.user(t, uploader.ID).HasApprovedUpload)

	audit, err := env.audit.ListByTarget(ctx, entity.AuditTargetItem, item.ID)
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, entity.AuditActionApproveItem, audit[0].Action)
	assert.Equal(t, admin.ID, audit[0].AdminID)
	assert.Equal(t, "127.0.0.1", audit[0].IP)
}

func TestModeration_StateMachine(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := testutil.SeedAdmin(t, env.db)
	uploader := testutil.SeedUser(t, env.db, 0)
	action := usecase.AdminAction{AdminID: admin.ID}

	t.Run("non positive value", func(t *testing.T) {
		item := testutil.SeedItem(t, env.db, uploader, "Tripod", entity.ItemStatePending, 0)

		_, err := env.moderation.Approve(ctx, &usecase.ApproveInput{AdminAction: action, ItemID: item.ID, Value: 0})
		assert.ErrorIs(t, err, domainerrors.ErrInvalidAppraisal)
		assert.Equal(t, entity.ItemStatePending, env.item(t, item.ID).State)
	})

	t.Run("approve twice", func(t *testing.T) {
		item := testutil.SeedItem(t, env.db, uploader, "Monitor", entity.ItemStatePending, 0)
		env.approve(t, admin, item.ID, 80)

		_, err := env.moderation.Approve(ctx, &usecase.ApproveInput{AdminAction: action, ItemID: item.ID, Value: 90})
		assert.ErrorIs(t, err, domainerrors.ErrInvalidStateTransition)
		assert.Equal(t, int64(80), env.item(t, item.ID).AppraisedValue)
	})

	t.Run("reject then approve", func(t *testing.T) {
		item := testutil.SeedItem(t, env.db, uploader, "Headphones", entity.ItemStatePending, 0)

		rejected, err := env.moderation.Reject(ctx, &usecase.RejectInput{AdminAction: action, ItemID: item.ID, Reason: "blurry photos"})
		require.NoError(t, err)
		assert.Equal(t, entity.ItemStateRejected, rejected.State)
		assert.Equal(t, "blurry photos", rejected.RejectionReason)
		assert.Len(t, env.notificationsOfKind(t, uploader.ID, entity.NotificationItemRejected), 1)

		_, err = env.moderation.Approve(ctx, &usecase.ApproveInput{AdminAction: action, ItemID: item.ID, Value: 50})
		assert.ErrorIs(t, err, domainerrors.ErrInvalidStateTransition)
	})

	t.Run("reject without reason", func(t *testing.T) {
		item := testutil.SeedItem(t, env.db, uploader, "Speaker", entity.ItemStatePending, 0)

		_, err := env.moderation.Reject(ctx, &usecase.RejectInput{AdminAction: action, ItemID: item.ID, Reason: "  "})
		assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
	})

	t.Run("unknown item", func(t *testing.T) {
		_, err := env.moderation.Approve(ctx, &usecase.ApproveInput{AdminAction: action, ItemID: admin.ID, Value: 10})
		assert.ErrorIs(t, err, domainerrors.ErrItemNotFound)
	})
}

func TestModeration_ApprovalPointsAreOnlyPaidOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := testutil.SeedAdmin(t, env.db)
	uploader := testutil.SeedUser(t, env.db, 0)
	item := testutil.SeedItem(t, env.db, uploader, "Camping stove", entity.ItemStatePending, 0)

	env.approve(t, admin, item.ID, 60)
	_, err := env.moderation.Approve(ctx, &usecase.ApproveInput{AdminAction: usecase.AdminAction{AdminID: admin.ID}, ItemID: item.ID, Value: 60})
	require.Error(t, err)

	assert.Equal(t, int64(entity.PointsPerApprovedUpload), env.user(t, uploader.ID).TradingPoints)
	assert.Len(t, env.notificationsOfKind(t, uploader.ID, entity.NotificationItemApproved), 1)
}
