// Package postgres implements the repositories on gorm and owns the database lifecycle.
package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"tradepost/config"
	"tradepost/internal/domain/lifecycle"
	"tradepost/internal/infra/metrics"

	"github.com/pkg/errors"
	pgLib "github.com/slighter12/go-lib/database/postgres"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

const (
	poolSampleInterval = 5 * time.Second
	poolWaitWarnAfter  = 50 * time.Millisecond
)

// Params are the dependencies of New.
type Params struct {
	fx.In
	fx.Lifecycle

	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics `optional:"true"`
}

// New opens the primary database. The connection is verified, and the schema
// optionally migrated, when the application starts.
func New(params Params) (*gorm.DB, error) {
	db, err := pgLib.New(params.Config.Postgres)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open postgres")
	}
	// Multi-statement atomicity goes through TransactionManager.Execute.
	db = db.Session(&gorm.Session{
		SkipDefaultTransaction: true,
		Logger:                 newQueryLogger(params.Logger, params.Config),
	})

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to unwrap postgres pool")
	}
	params.Metrics.WatchDB(sqlDB, "primary")

	sampler := &poolSampler{db: sqlDB, logger: params.Logger.With(slog.String("component", "db_pool"))}
	stop := make(chan struct{})

	params.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
			defer cancel()

			if err := sqlDB.PingContext(ctx); err != nil {
				return errors.Wrap(err, "failed to reach postgres")
			}
			if params.Config.Database.AutoMigrate {
				if err := Migrate(ctx, db); err != nil {
					return err
				}
				params.Logger.InfoContext(ctx, "Database schema migrated")
			}
			go sampler.run(stop, poolSampleInterval)

			return nil
		},
		OnStop: func(context.Context) error {
			close(stop)

			return errors.Wrap(sqlDB.Close(), "failed to close postgres")
		},
	})

	return db, nil
}

// poolSampler logs when callers had to wait for a free connection.
type poolSampler struct {
	db     *sql.DB
	logger *slog.Logger
	last   sql.DBStats
}

func (p *poolSampler) run(stop <-chan struct{}, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	p.last = p.db.Stats()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.sample(p.db.Stats())
		}
	}
}

func (p *poolSampler) sample(cur sql.DBStats) {
	waits := cur.WaitCount - p.last.WaitCount
	waited := cur.WaitDuration - p.last.WaitDuration
	p.last = cur
	if waits <= 0 {
		return
	}

	level := slog.LevelDebug
	if waited >= poolWaitWarnAfter {
		level = slog.LevelWarn
	}
	p.logger.LogAttrs(context.Background(), level, "Connection pool saturated",
		slog.Int64("waits", waits),
		slog.Duration("waited", waited),
		slog.Duration("avg_wait", waited/time.Duration(waits)),
		slog.Int("in_use", cur.InUse),
		slog.Int("idle", cur.Idle),
		slog.Int("max_open", cur.MaxOpenConnections),
	)
}
