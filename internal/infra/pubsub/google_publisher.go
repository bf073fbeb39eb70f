package pubsub

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"tradepost/config"
	"tradepost/internal/domain/service"

	"cloud.google.com/go/pubsub/v2"
	pubsubpb "cloud.google.com/go/pubsub/v2/apiv1/pubsubpb"
	"github.com/pkg/errors"
)

// Jobs are rare and latency matters more than batching.
const googlePublishDelay = 10 * time.Millisecond

type googlePublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	logger    *slog.Logger
}

// newGooglePublisher fails fast when the topic does not exist.
func newGooglePublisher(ctx context.Context, cfg *config.PubSubConfig, logger *slog.Logger) (*googlePublisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create pubsub client")
	}

	topic := "projects/" + cfg.ProjectID + "/topics/" + cfg.TopicID
	if _, err := client.TopicAdminClient.GetTopic(ctx, &pubsubpb.GetTopicRequest{Topic: topic}); err != nil {
		_ = client.Close()

		return nil, errors.Wrapf(err, "topic %s is not reachable", topic)
	}

	publisher := client.Publisher(cfg.TopicID)
	publisher.PublishSettings.DelayThreshold = googlePublishDelay

	return &googlePublisher{
		client:    client,
		publisher: publisher,
		logger:    logger.With(slog.String("publisher", "google"), slog.String("topic", cfg.TopicID)),
	}, nil
}

// PublishJob blocks until the server acknowledged the message.
func (p *googlePublisher) PublishJob(ctx context.Context, job *service.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return errors.Wrap(err, "failed to encode job")
	}

	serverID, err := p.publisher.Publish(ctx, &pubsub.Message{
		Data:       data,
		Attributes: attributesFor(job),
	}).Get(ctx)
	if err != nil {
		return errors.Wrapf(err, "failed to publish job %s", job.JobID)
	}
	p.logger.DebugContext(ctx, "Job published",
		slog.String("job_id", job.JobID),
		slog.String("type", job.Type),
		slog.String("server_id", serverID),
	)

	return nil
}

func (p *googlePublisher) Close() error {
	p.publisher.Stop()

	return errors.WithStack(p.client.Close())
}
