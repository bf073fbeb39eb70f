package pubsub

import (
	"context"
	"log/slog"

	"tradepost/config"
	"tradepost/internal/domain/constants"
	"tradepost/internal/domain/service"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// discardPublisher drops jobs when background processing is switched off.
type discardPublisher struct {
	logger *slog.Logger
}

func (p discardPublisher) PublishJob(ctx context.Context, job *service.Job) error {
	p.logger.DebugContext(ctx, "Job discarded", slog.String("job_id", job.JobID), slog.String("type", job.Type))

	return nil
}

func (discardPublisher) Close() error { return nil }

// PublisherParams are the dependencies of NewJobPublisher.
type PublisherParams struct {
	fx.In

	Lc      fx.Lifecycle
	Ctx     context.Context
	Config  *config.Config
	Logger  *slog.Logger
	Handler service.JobHandler `optional:"true"`
}

// NewJobPublisher picks the transport named by pubsub.provider, in process by default.
func NewJobPublisher(params PublisherParams) (service.JobPublisher, error) {
	cfg := params.Config.PubSub
	if cfg == nil {
		cfg = &config.PubSubConfig{}
	}
	provider := cfg.Provider
	if provider == "" {
		provider = constants.PubSubProviderInProcess
	}
	logger := params.Logger.With(slog.String("provider", provider))

	publisher, err := openPublisher(params, cfg, provider, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Job publisher ready")

	params.Lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return publisher.Close()
		},
	})

	return publisher, nil
}

func openPublisher(params PublisherParams, cfg *config.PubSubConfig, provider string, logger *slog.Logger) (service.JobPublisher, error) {
	switch provider {
	case constants.PubSubProviderNone:
		return discardPublisher{logger: logger}, nil

	case constants.PubSubProviderInProcess:
		if params.Handler == nil {
			return nil, errors.New("the inprocess provider needs a job handler")
		}
		runner := NewInProcessRunner(params.Handler, logger, cfg.Workers, 0)
		params.Lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				runner.Start()

				return nil
			},
		})

		return runner, nil

	case constants.PubSubProviderLocal:
		if cfg.LocalEndpoint == "" {
			return nil, errors.New("pubsub.localEndpoint is required for the local provider")
		}

		return newHTTPPublisher(cfg.LocalEndpoint, logger), nil

	case constants.PubSubProviderGoogle:
		if cfg.ProjectID == "" || cfg.TopicID == "" {
			return nil, errors.New("pubsub.projectId and pubsub.topicId are required for the google provider")
		}

		return newGooglePublisher(params.Ctx, cfg, logger)

	default:
		return nil, errors.Errorf("unknown pubsub provider %q", provider)
	}
}

// Module provides the JobPublisher.
//
//nolint:gochecknoglobals
var Module = fx.Module("pubsub", fx.Provide(NewJobPublisher))
