package pubsub

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tradepost/internal/domain/service"
	"tradepost/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	mu       sync.Mutex
	handled  []string
	failures map[string]int
}

func (h *recordingHandler) HandleJob(_ context.Context, job *service.Job) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.failures[job.JobID] > 0 {
		h.failures[job.JobID]--

		return errors.New("transient")
	}
	h.handled = append(h.handled, job.JobID)

	return nil
}

func (h *recordingHandler) jobs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]string(nil), h.handled...)
}

func TestInProcessRunner_PublishJob_RunsOnWorkers(t *testing.T) {
	handler := &recordingHandler{}
	runner := NewInProcessRunner(handler, testutil.NewLogger(), 2, 8)
	runner.Start()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, runner.PublishJob(context.Background(), &service.Job{JobID: id, Type: "test"}))
	}
	require.NoError(t, runner.Close())

	assert.ElementsMatch(t, []string{"a", "b", "c"}, handler.jobs())
}

func TestInProcessRunner_PublishJob_RetriesTransientFailures(t *testing.T) {
	handler := &recordingHandler{failures: map[string]int{"flaky": 2}}
	runner := NewInProcessRunner(handler, testutil.NewLogger(), 1, 1)
	runner.backoff = time.Millisecond
	runner.Start()

	require.NoError(t, runner.PublishJob(context.Background(), &service.Job{JobID: "flaky"}))
	require.NoError(t, runner.Close())

	assert.Equal(t, []string{"flaky"}, handler.jobs())
}

func TestInProcessRunner_PublishJob_AfterClose(t *testing.T) {
	runner := NewInProcessRunner(&recordingHandler{}, testutil.NewLogger(), 1, 1)
	require.NoError(t, runner.Close())

	err := runner.PublishJob(context.Background(), &service.Job{JobID: "late"})

	assert.ErrorIs(t, err, ErrRunnerClosed)
	assert.NoError(t, runner.Close())
}

func TestInProcessRunner_PublishJob_FullQueue(t *testing.T) {
	handler := &recordingHandler{}
	runner := NewInProcessRunner(handler, testutil.NewLogger(), 1, 1)

	require.NoError(t, runner.PublishJob(context.Background(), &service.Job{JobID: "first"}))
	err := runner.PublishJob(context.Background(), &service.Job{JobID: "second"})
	assert.ErrorIs(t, err, ErrRunnerFull)

	// Close drains inline when the workers never started.
	require.NoError(t, runner.Close())
	assert.Equal(t, []string{"first"}, handler.jobs())
}
