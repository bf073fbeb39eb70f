package pubsub

import (
	"context"
	"testing"

	"tradepost/config"
	"tradepost/internal/domain/service"
	"tradepost/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func publisherParams(t *testing.T, cfg *config.PubSubConfig, handler service.JobHandler) PublisherParams {
	return PublisherParams{
		Lc:      fxtest.NewLifecycle(t),
		Ctx:     context.Background(),
		Config:  &config.Config{PubSub: cfg},
		Logger:  testutil.NewLogger(),
		Handler: handler,
	}
}

func TestNewJobPublisher_Providers(t *testing.T) {
	publisher, err := NewJobPublisher(publisherParams(t, nil, &recordingHandler{}))
	require.NoError(t, err)
	assert.IsType(t, &InProcessRunner{}, publisher)

	publisher, err = NewJobPublisher(publisherParams(t, &config.PubSubConfig{Provider: "none"}, nil))
	require.NoError(t, err)
	assert.NoError(t, publisher.PublishJob(context.Background(), &service.Job{JobID: "dropped"}))

	publisher, err = NewJobPublisher(publisherParams(t, &config.PubSubConfig{Provider: "local", LocalEndpoint: "http://localhost:8081/push"}, nil))
	require.NoError(t, err)
	assert.IsType(t, &httpPublisher{}, publisher)
}

func TestNewJobPublisher_Misconfigured(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.PubSubConfig
		handler service.JobHandler
	}{
		{"inprocess without handler", &config.PubSubConfig{Provider: "inprocess"}, nil},
		{"local without endpoint", &config.PubSubConfig{Provider: "local"}, nil},
		{"google without topic", &config.PubSubConfig{Provider: "google", ProjectID: "p"}, nil},
		{"unknown", &config.PubSubConfig{Provider: "kafka"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewJobPublisher(publisherParams(t, tt.cfg, tt.handler))
			assert.Error(t, err)
		})
	}
}
