package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"tradepost/config"
	"tradepost/internal/domain/entity"
	"tradepost/internal/testutil"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

type fakeRedis struct {
	channel string
	message []byte
	err     error
}

func (f *fakeRedis) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	f.channel = channel
	f.message, _ = message.([]byte)

	cmd := redis.NewIntCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
	} else {
		cmd.SetVal(1)
	}

	return cmd
}

func TestRedisPublisher_PublishNotification(t *testing.T) {
	client := &fakeRedis{}
	p := &redisPublisher{client: client}
	n := &entity.Notification{ID: uuid.New(), UserID: uuid.New(), Kind: entity.NotificationLevelUp, Message: "Novice"}

	require.NoError(t, p.PublishNotification(context.Background(), n))

	assert.Equal(t, "notifications:"+n.UserID.String(), client.channel)
	var decoded entity.Notification
	require.NoError(t, json.Unmarshal(client.message, &decoded))
	assert.Equal(t, n.ID, decoded.ID)
	assert.Equal(t, entity.NotificationLevelUp, decoded.Kind)
}

func TestRedisPublisher_PublishNotification_Error(t *testing.T) {
	p := &redisPublisher{client: &fakeRedis{err: errors.New("connection reset")}}

	err := p.PublishNotification(context.Background(), &entity.Notification{UserID: uuid.New()})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish to Redis")
}

func TestNewRedisPublisher_Unconfigured(t *testing.T) {
	p, err := NewRedisPublisher(PublisherParams{
		Lc:     fxtest.NewLifecycle(t),
		Ctx:    context.Background(),
		Config: &config.Config{},
		Logger: testutil.NewLogger(),
	})

	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestNewRedisPublisher_BadURL(t *testing.T) {
	_, err := NewRedisPublisher(PublisherParams{
		Lc:     fxtest.NewLifecycle(t),
		Ctx:    context.Background(),
		Config: &config.Config{Redis: &config.RedisConfig{URL: "://nope"}},
		Logger: testutil.NewLogger(),
	})

	assert.Error(t, err)
}
