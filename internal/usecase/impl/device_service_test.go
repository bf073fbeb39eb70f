package impl

import (
	"context"
	"testing"
	"time"

	"tradepost/internal/domain/entity"
	domainerrors "tradepost/internal/domain/errors"
	"tradepost/internal/infra/persistence/postgres"
	"tradepost/internal/testutil"
	"tradepost/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDeviceService(t *testing.T) (usecase.DeviceUsecase, *testEnv) {
	t.Helper()

	env := newTestEnv(t)
	srv := NewDeviceService(DeviceServiceParams{
		DeviceRepo: postgres.NewDeviceRepository(env.db),
		Clock:      env.clock,
		Logger:     testutil.NewLogger(),
	})

	return srv, env
}

func TestDeviceService_RegisterRefreshesInstallation(t *testing.T) {
	srv, env := newTestDeviceService(t)
	ctx := context.Background()
	user := testutil.SeedUser(t, env.db, 0)

	first, err := srv.Register(ctx, &usecase.RegisterDeviceInput{
		UserID: user.ID, InstallationID: " pixel-7 ", Token: "tok-1", Platform: "Android",
	})
	require.NoError(t, err)
	assert.Equal(t, "pixel-7", first.InstallationID)
	assert.Equal(t, entity.DevicePlatformAndroid, first.Platform)

	env.clock.Advance(time.Hour)
	second, err := srv.Register(ctx, &usecase.RegisterDeviceInput{
		UserID: user.ID, InstallationID: "pixel-7", Token: "tok-2", Platform: "android",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	devices, err := srv.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "tok-2", devices[0].Token)
	assert.True(t, devices[0].LastSeenAt.After(first.LastSeenAt))
}

func TestDeviceService_TokenFollowsNewOwner(t *testing.T) {
	srv, env := newTestDeviceService(t)
	ctx := context.Background()
	alice := testutil.SeedUser(t, env.db, 0)
	bob := testutil.SeedUser(t, env.db, 0)

	_, err := srv.Register(ctx, &usecase.RegisterDeviceInput{
		UserID: alice.ID, InstallationID: "shared-ipad", Token: "tok-shared", Platform: "ios",
	})
	require.NoError(t, err)
	_, err = srv.Register(ctx, &usecase.RegisterDeviceInput{
		UserID: bob.ID, InstallationID: "shared-ipad", Token: "tok-shared", Platform: "ios",
	})
	require.NoError(t, err)

	devices, err := srv.List(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, devices)

	devices, err = srv.List(ctx, bob.ID)
	require.NoError(t, err)
	assert.Len(t, devices, 1)
}

func TestDeviceService_RegisterValidation(t *testing.T) {
	srv, env := newTestDeviceService(t)
	user := testutil.SeedUser(t, env.db, 0)

	tests := []struct {
		name  string
		input usecase.RegisterDeviceInput
		field string
	}{
		{"missing token", usecase.RegisterDeviceInput{InstallationID: "a", Platform: "ios"}, "token"},
		{"missing installation", usecase.RegisterDeviceInput{Token: "t", Platform: "ios"}, "installation_id"},
		{"unknown platform", usecase.RegisterDeviceInput{InstallationID: "a", Token: "t", Platform: "symbian"}, "platform"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := tt.input
			input.UserID = user.ID

			_, err := srv.Register(context.Background(), &input)
			require.ErrorIs(t, err, domainerrors.ErrValidationFailed)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestDeviceService_RemoveIsScopedToOwner(t *testing.T) {
	srv, env := newTestDeviceService(t)
	ctx := context.Background()
	owner := testutil.SeedUser(t, env.db, 0)
	other := testutil.SeedUser(t, env.db, 0)

	device, err := srv.Register(ctx, &usecase.RegisterDeviceInput{
		UserID: owner.ID, InstallationID: "browser", Token: "tok-web", Platform: "web",
	})
	require.NoError(t, err)

	assert.ErrorIs(t, srv.Remove(ctx, other.ID, device.ID), domainerrors.ErrDeviceNotFound)
	assert.ErrorIs(t, srv.Remove(ctx, owner.ID, uuid.New()), domainerrors.ErrDeviceNotFound)
	require.NoError(t, srv.Remove(ctx, owner.ID, device.ID))

	devices, err := srv.List(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, devices)
}
