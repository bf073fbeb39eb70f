package postgres

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"tradepost/config"
	deliverycontext "tradepost/internal/delivery/context"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func sqlFn(sql string, rows int64) func() (string, int64) {
	return func() (string, int64) { return sql, rows }
}

func TestQueryLogger_UsesRequestScopedLogger(t *testing.T) {
	var base, scoped bytes.Buffer
	l := newQueryLogger(bufferLogger(&base), &config.Config{})

	ctx := deliverycontext.WithLogger(context.Background(),
		bufferLogger(&scoped).With(slog.String("request_id", "req-7")))
	l.Trace(ctx, time.Now(), sqlFn("UPDATE users SET credit_balance = 1", 0), errors.New("deadlock detected"))

	assert.Empty(t, base.String())
	assert.Contains(t, scoped.String(), `"request_id":"req-7"`)
	assert.Contains(t, scoped.String(), "Query failed")
	assert.Contains(t, scoped.String(), "deadlock detected")
}

func TestQueryLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{}
	cfg.Database.SlowQueryThreshold = 10 * time.Millisecond
	l := newQueryLogger(bufferLogger(&buf), cfg)

	l.Trace(context.Background(), time.Now(), sqlFn("SELECT 1", 1), gorm.ErrRecordNotFound)
	l.Trace(context.Background(), time.Now(), sqlFn("SELECT 1", 1), nil)
	assert.Empty(t, buf.String(), "missing rows and fast queries stay quiet outside debug")

	l.Trace(context.Background(), time.Now().Add(-time.Second), sqlFn("SELECT pg_sleep(1)", 1), nil)
	assert.Contains(t, buf.String(), "Slow query")
}
