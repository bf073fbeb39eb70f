package impl

import (
	"context"
	"testing"

	"tradepost/internal/domain/entity"
	domainerrors "tradepost/internal/domain/errors"
	"tradepost/internal/testutil"
	"tradepost/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_Inbox(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := testutil.SeedAdmin(t, env.db)
	uploader := testutil.SeedUser(t, env.db, 0)
	other := testutil.SeedUser(t, env.db, 0)
	for _, name := range []string{"Desk", "Chair", "Shelf"} {
		item := testutil.SeedItem(t, env.db, uploader, name, entity.ItemStatePending, 0)
		_, err := env.moderation.Reject(ctx, &usecase.RejectInput{
			AdminAction: usecase.AdminAction{AdminID: admin.ID},
			ItemID:      item.ID,
			Reason:      "photos missing",
		})
		require.NoError(t, err)
	}

	count, err := env.inbox.UnreadCount(ctx, uploader.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	all, err := env.inbox.List(ctx, uploader.ID, false, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)

	require.NoError(t, env.inbox.MarkRead(ctx, uploader.ID, all[0].ID))
	require.NoError(t, env.inbox.MarkRead(ctx, uploader.ID, all[0].ID))
	assert.ErrorIs(t, env.inbox.MarkRead(ctx, other.ID, all[1].ID), domainerrors.ErrNotificationNotFound)
	assert.ErrorIs(t, env.inbox.MarkRead(ctx, uploader.ID, uuid.New()), domainerrors.ErrNotificationNotFound)

	unread, err := env.inbox.List(ctx, uploader.ID, true, 10, 0)
	require.NoError(t, err)
	assert.Len(t, unread, 2)

	changed, err := env.inbox.MarkAllRead(ctx, uploader.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), changed)

	count, err = env.inbox.UnreadCount(ctx, uploader.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNotificationService_EmailPreference(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	admin := testutil.SeedAdmin(t, env.db)
	uploader := testutil.SeedUser(t, env.db, 0)
	reject := func(name string) {
		item := testutil.SeedItem(t, env.db, uploader, name, entity.ItemStatePending, 0)
		_, err := env.moderation.Reject(ctx, &usecase.RejectInput{
			AdminAction: usecase.AdminAction{AdminID: admin.ID},
			ItemID:      item.ID,
			Reason:      "not allowed",
		})
		require.NoError(t, err)
	}

	_, err := env.inbox.SetEmailPreference(ctx, uploader.ID, "newsletter", false)
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)

	reject("Lamp")
	require.Len(t, env.mail.sent(), 1)
	assert.Equal(t, uploader.Email, env.mail.sent()[0].To)

	pref, err := env.inbox.SetEmailPreference(ctx, uploader.ID, entity.NotificationItemRejected, false)
	require.NoError(t, err)
	assert.False(t, pref.EmailEnabled)

	reject("Rug")
	assert.Len(t, env.mail.sent(), 1)
	assert.Len(t, env.notificationsOfKind(t, uploader.ID, entity.NotificationItemRejected), 2)

	_, err = env.inbox.SetEmailPreference(ctx, uploader.ID, entity.NotificationItemRejected, true)
	require.NoError(t, err)

	reject("Vase")
	assert.Len(t, env.mail.sent(), 2)
}
