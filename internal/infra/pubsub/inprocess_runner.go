package pubsub

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tradepost/internal/domain/service"

	"github.com/pkg/errors"
)

const (
	defaultRunnerWorkers   = 2
	defaultRunnerQueueSize = 256
	runnerJobTimeout       = time.Minute
	runnerMaxAttempts      = 3
	runnerRetryBackoff     = 200 * time.Millisecond
)

// ErrRunnerClosed is returned when a job is published after shutdown began.
var ErrRunnerClosed = errors.New("job runner is closed")

// ErrRunnerFull is returned when the job buffer is exhausted.
var ErrRunnerFull = errors.New("job runner queue is full")

// InProcessRunner implements JobPublisher by executing jobs on a local worker pool.
type InProcessRunner struct {
	handler service.JobHandler
	logger  *slog.Logger
	workers int
	backoff time.Duration

	jobs    chan *service.Job
	mu      sync.RWMutex
	closed  bool
	started bool
	wg      sync.WaitGroup
}

// NewInProcessRunner creates a runner. Non-positive sizes fall back to defaults.
func NewInProcessRunner(handler service.JobHandler, logger *slog.Logger, workers, queueSize int) *InProcessRunner {
	if workers <= 0 {
		workers = defaultRunnerWorkers
	}
	if queueSize <= 0 {
		queueSize = defaultRunnerQueueSize
	}

	return &InProcessRunner{
		handler: handler,
		logger:  logger,
		workers: workers,
		backoff: runnerRetryBackoff,
		jobs:    make(chan *service.Job, queueSize),
	}
}

// Start spawns the workers. Calling it twice is a no-op.
func (r *InProcessRunner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started || r.closed {
		return
	}
	r.started = true

	for range r.workers {
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			for job := range r.jobs {
				r.run(job)
			}
		}()
	}
}

// PublishJob buffers the job without blocking the caller.
func (r *InProcessRunner) PublishJob(ctx context.Context, job *service.Job) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return ErrRunnerClosed
	}

	select {
	case r.jobs <- job:
		r.logger.DebugContext(ctx, "[InProcess] Job queued",
			slog.String("job_id", job.JobID),
			slog.String("type", job.Type),
		)

		return nil
	default:
		return errors.WithStack(ErrRunnerFull)
	}
}

// Close stops accepting jobs and waits for the queued ones to drain.
func (r *InProcessRunner) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()

		return nil
	}
	r.closed = true
	close(r.jobs)
	started := r.started
	r.mu.Unlock()

	if !started {
		// Nobody will drain the buffer; run what is left inline.
		for job := range r.jobs {
			r.run(job)
		}

		return nil
	}

	r.wg.Wait()

	return nil
}

func (r *InProcessRunner) run(job *service.Job) {
	logger := r.logger.With(
		slog.String("job_id", job.JobID),
		slog.String("type", job.Type),
		slog.String("request_id", job.RequestID),
	)

	for attempt := 1; attempt <= runnerMaxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), runnerJobTimeout)
		err := r.handler.HandleJob(ctx, job)
		cancel()

		if err == nil {
			logger.Debug("[InProcess] Job completed", slog.Int("attempt", attempt))

			return
		}

		logger.Warn("[InProcess] Job failed",
			slog.Int("attempt", attempt),
			slog.Any("error", err),
		)

		if attempt < runnerMaxAttempts {
			time.Sleep(r.backoff * time.Duration(attempt))
		}
	}

	logger.Error("[InProcess] Job dropped after retries")
}
