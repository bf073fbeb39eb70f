package impl

import (
	"context"
	"testing"
	"time"

	"tradepost/internal/domain/entity"
	"tradepost/internal/domain/repository"
	"tradepost/internal/domain/service"
	"tradepost/internal/infra/metrics"
	"tradepost/internal/infra/persistence/postgres"
	mocks "tradepost/internal/mocks/service"
	"tradepost/internal/testutil"
	"tradepost/internal/usecase"

	"github.com/pkg/errors"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func seedDevice(t *testing.T, repo repository.DeviceRepository, user *entity.User, clientID, token string) {
	t.Helper()

	require.NoError(t, repo.Save(context.Background(), &entity.Device{
		UserID:         user.ID,
		InstallationID: clientID,
		Token:          token,
		Platform:       entity.DevicePlatformAndroid,
		LastSeenAt:     time.Now(),
	}))
}

func TestDispatcher_FansOutAfterCommitAndPrunesStaleTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, env.db, 0)
	devices := postgres.NewDeviceRepository(env.db)
	seedDevice(t, devices, user, "phone", "tok-good")
	seedDevice(t, devices, user, "tablet", "tok-stale")

	push := mocks.NewMockPushService(t)
	live := mocks.NewMockRealtimePublisher(t)
	live.EXPECT().
		PublishNotification(mock.Anything, mock.MatchedBy(func(n *entity.Notification) bool {
			return n.UserID == user.ID && n.Kind == entity.NotificationItemRejected
		})).
		Return(nil).
		Once()
	push.EXPECT().
		Push(mock.Anything, mock.MatchedBy(func(msg *service.PushMessage) bool {
			return len(msg.Tokens) == 2 && msg.Title == "Item rejected" && msg.Body == "photos too dark"
		})).
		Return(&service.PushReport{Sent: 1, Failed: 1, Invalid: []string{"tok-stale"}}, nil).
		Once()

	dispatcher := NewNotificationDispatcher(NotificationDispatcherParams{
		NotificationRepo: env.notifRepo,
		DeviceRepo:       devices,
		Push:             push,
		Realtime:         live,
		Logger:           testutil.NewLogger(),
	})

	err := env.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		_, err := dispatcher.Dispatch(ctx, repos, &usecase.DispatchRequest{
			UserID:  user.ID,
			Kind:    entity.NotificationItemRejected,
			Message: "photos too dark",
			InApp:   true,
		})

		return err
	})
	require.NoError(t, err)

	remaining, err := devices.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "phone", remaining[0].InstallationID)
	assert.Len(t, env.notificationsOfKind(t, user.ID, entity.NotificationItemRejected), 1)
}

func TestDispatcher_RolledBackTransactionSendsNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user := testutil.SeedUser(t, env.db, 0)
	devices := postgres.NewDeviceRepository(env.db)
	seedDevice(t, devices, user, "phone", "tok-good")

	// No expectations: any call fails the test.
	push := mocks.NewMockPushService(t)
	live := mocks.NewMockRealtimePublisher(t)

	dispatcher := NewNotificationDispatcher(NotificationDispatcherParams{
		NotificationRepo: env.notifRepo,
		DeviceRepo:       devices,
		MailQueue:        env.mail,
		Push:             push,
		Realtime:         live,
		Logger:           testutil.NewLogger(),
	})

	boom := errors.New("later step failed")
	err := env.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		if _, err := dispatcher.Dispatch(ctx, repos, &usecase.DispatchRequest{
			UserID:  user.ID,
			Kind:    entity.NotificationLevelUp,
			Message: "You reached level 2",
			InApp:   true,
			Email:   true,
		}); err != nil {
			return err
		}

		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Empty(t, env.notificationsOfKind(t, user.ID, entity.NotificationLevelUp))
	assert.Empty(t, env.mail.sent())
}

type refusingMailQueue struct{}

func (refusingMailQueue) Enqueue(*service.EmailMessage) bool { return false }

func dispatchLevelUpEmail(t *testing.T, env *testEnv, dispatcher usecase.NotificationDispatcher, user *entity.User) *usecase.DispatchResult {
	t.Helper()

	ctx := context.Background()
	var result *usecase.DispatchResult
	err := env.txManager.Execute(ctx, func(repos repository.RepositoryFactory) error {
		var err error
		result, err = dispatcher.Dispatch(ctx, repos, &usecase.DispatchRequest{
			UserID:  user.ID,
			Kind:    entity.NotificationLevelUp,
			Message: "You reached level 3",
			InApp:   true,
			Email:   true,
		})

		return err
	})
	require.NoError(t, err)

	return result
}

func TestDispatcher_EmailSkippedWithoutTransport(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.SeedUser(t, env.db, 0)

	m := metrics.NewMetrics()
	dispatcher := NewNotificationDispatcher(NotificationDispatcherParams{
		NotificationRepo: env.notifRepo,
		DeviceRepo:       postgres.NewDeviceRepository(env.db),
		Metrics:          m,
		Logger:           testutil.NewLogger(),
	})

	result := dispatchLevelUpEmail(t, env, dispatcher, user)
	assert.False(t, result.EmailScheduled)
	assert.Len(t, env.notificationsOfKind(t, user.ID, entity.NotificationLevelUp), 1)
	assert.InDelta(t, 0, promtest.ToFloat64(m.Notifications.WithLabelValues("email", metrics.ResultFailure)), 0)
}

func TestDispatcher_RefusedEmailCountedOnce(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.SeedUser(t, env.db, 0)

	m := metrics.NewMetrics()
	dispatcher := NewNotificationDispatcher(NotificationDispatcherParams{
		NotificationRepo: env.notifRepo,
		DeviceRepo:       postgres.NewDeviceRepository(env.db),
		MailQueue:        refusingMailQueue{},
		Metrics:          m,
		Logger:           testutil.NewLogger(),
	})

	result := dispatchLevelUpEmail(t, env, dispatcher, user)
	assert.True(t, result.EmailScheduled)
	assert.InDelta(t, 1, promtest.ToFloat64(m.Notifications.WithLabelValues("email", metrics.ResultFailure)), 0)
}
