package worker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"tradepost/config"
	"tradepost/internal/delivery/worker/handler"
	"tradepost/internal/domain/service"
	"tradepost/internal/testutil"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type noopJobs struct{}

func (noopJobs) HandleJob(context.Context, *service.Job) error { return nil }

func TestHealth(t *testing.T) {
	logger := testutil.NewLogger()
	push := handler.NewPushHandlerWithVerifier(noopJobs{}, logger, nil)

	tests := []struct {
		name   string
		check  HealthCheck
		status int
	}{
		{"no check", nil, http.StatusOK},
		{"database up", func(context.Context) error { return nil }, http.StatusOK},
		{"database down", func(context.Context) error { return errors.New("connection refused") }, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEcho(&config.Config{}, logger, push, tt.check)

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.status, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
		})
	}
}
