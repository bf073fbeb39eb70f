// Package delivery defines the transports the process can serve.
package delivery

import (
	"context"
	"log/slog"
	"os"

	"go.uber.org/fx"
)

// Delivery is a long running transport started by the fx invoke hook.
type Delivery interface {
	Serve(ctx context.Context) error
}

// StartParams collects every delivery registered in the "deliveries" group.
type StartParams struct {
	fx.In
	fx.Shutdowner

	Logger     *slog.Logger
	Deliveries []Delivery `group:"deliveries"`
}

// StartAll serves each delivery on its own goroutine. The first one that fails
// shuts the application down so the OnStop hooks still run.
func StartAll(ctx context.Context, params StartParams) {
	for _, d := range params.Deliveries {
		go func() {
			if err := d.Serve(ctx); err != nil {
				params.Logger.Error("Delivery stopped", slog.Any("error", err))
				if err := params.Shutdown(fx.ExitCode(1)); err != nil {
					params.Logger.Error("Failed to shut down", slog.Any("error", err))
					os.Exit(1)
				}
			}
		}()
	}
}
