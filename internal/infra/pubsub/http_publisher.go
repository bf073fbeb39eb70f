package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	deliverycontext "tradepost/internal/delivery/context"
	"tradepost/internal/domain/service"

	"github.com/pkg/errors"
)

const httpPublishTimeout = 30 * time.Second

// httpPublisher posts push bodies straight to a worker, standing in for a push
// subscription during development.
type httpPublisher struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

func newHTTPPublisher(endpoint string, logger *slog.Logger) *httpPublisher {
	return &httpPublisher{
		endpoint: endpoint,
		client:   &http.Client{Timeout: httpPublishTimeout},
		logger:   logger.With(slog.String("publisher", "http")),
	}
}

func (p *httpPublisher) PublishJob(ctx context.Context, job *service.Job) error {
	msg, err := EncodeJob(job, localSubscription, time.Now())
	if err != nil {
		return err
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "failed to encode push message")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if job.RequestID != "" {
		req.Header.Set(deliverycontext.HeaderXRequestID, job.RequestID)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "worker unreachable")
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return errors.Errorf("worker answered %d for job %s", resp.StatusCode, job.JobID)
	}
	p.logger.DebugContext(ctx, "Job delivered to worker",
		slog.String("job_id", job.JobID),
		slog.String("type", job.Type),
	)

	return nil
}

func (p *httpPublisher) Close() error {
	p.client.CloseIdleConnections()

	return nil
}
