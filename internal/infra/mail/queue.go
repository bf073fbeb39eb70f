package mail

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tradepost/config"
	"tradepost/internal/domain/service"
	"tradepost/internal/infra/metrics"

	"go.uber.org/fx"
)

const (
	defaultWorkers    = 2
	defaultQueueSize  = 512
	defaultMaxRetries = 3
	sendTimeout       = 30 * time.Second
	retryBackoff      = time.Second
)

// Queue is a bounded buffer of outgoing mail drained by a worker pool.
type Queue struct {
	mailer     service.Mailer
	logger     *slog.Logger
	metrics    *metrics.Metrics
	workers    int
	maxRetries int
	backoff    time.Duration

	messages chan *service.EmailMessage
	mu       sync.RWMutex
	closed   bool
	wg       sync.WaitGroup
}

// NewQueue creates a queue. Non-positive sizes fall back to defaults.
func NewQueue(mailer service.Mailer, logger *slog.Logger, m *metrics.Metrics, workers, queueSize, maxRetries int) *Queue {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &Queue{
		mailer:     mailer,
		logger:     logger,
		metrics:    m,
		workers:    workers,
		maxRetries: maxRetries,
		backoff:    retryBackoff,
		messages:   make(chan *service.EmailMessage, queueSize),
	}
}

// Start spawns the workers.
func (q *Queue) Start() {
	for range q.workers {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for msg := range q.messages {
				q.deliver(msg)
			}
		}()
	}
}

// Enqueue hands a message to the workers without blocking. A refused message
// is counted by the caller.
func (q *Queue) Enqueue(msg *service.EmailMessage) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}

	select {
	case q.messages <- msg:
		return true
	default:
		q.logger.Warn("Mail queue full, dropping message", slog.String("subject", msg.Subject))

		return false
	}
}

// Stop refuses new messages and waits for queued ones until ctx expires.
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.messages)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// deliver retries with linear backoff. Failures are logged and dropped.
func (q *Queue) deliver(msg *service.EmailMessage) {
	for attempt := 1; attempt <= q.maxRetries; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		err := q.mailer.Send(ctx, msg)
		if err == nil {
			if msg.OnDelivered != nil {
				msg.OnDelivered(ctx)
			}
			cancel()
			q.metrics.Notification("email", metrics.ResultSuccess)

			return
		}
		cancel()

		q.logger.Warn("Email send failed",
			slog.String("subject", msg.Subject),
			slog.Int("attempt", attempt),
			slog.Any("error", err),
		)

		if attempt < q.maxRetries {
			time.Sleep(q.backoff * time.Duration(attempt))
		}
	}

	q.metrics.Notification("email", metrics.ResultFailure)
	q.logger.Error("Email dropped after retries", slog.String("subject", msg.Subject))
}

// QueueParams holds dependencies for the mail queue, injected by Fx
type QueueParams struct {
	fx.In

	Lc      fx.Lifecycle
	Config  *config.Config
	Logger  *slog.Logger
	Mailer  service.Mailer   `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

// NewMailQueue builds the worker queue and ties it to the app lifecycle.
// Without an SMTP transport it returns nil and the dispatcher skips email.
func NewMailQueue(params QueueParams) service.MailQueue {
	if params.Mailer == nil {
		params.Logger.Info("Email delivery disabled, no SMTP transport configured")

		return nil
	}

	cfg := params.Config.Mail
	queue := NewQueue(params.Mailer, params.Logger, params.Metrics, cfg.Workers, cfg.QueueSize, cfg.MaxRetries)

	params.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			params.Logger.Info("Starting mail workers", slog.Int("workers", queue.workers))
			queue.Start()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			params.Logger.Info("Draining mail queue")

			return queue.Stop(ctx)
		},
	})

	return queue
}
