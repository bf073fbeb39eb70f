// Command reconcile compares every stored credit balance with its ledger sum
// and exits non-zero when any account has drifted.
package main

import (
	"context"
	"log/slog"
	"os"

	"tradepost/config"
	"tradepost/internal/domain/lifecycle"
	logs "tradepost/internal/infra/log"
	"tradepost/internal/infra/persistence/postgres"
	"tradepost/internal/usecase"
	"tradepost/internal/usecase/impl"

	"go.uber.org/fx"
)

func main() {
	var (
		ledger usecase.LedgerUsecase
		logger *slog.Logger
	)

	app := fx.New(
		fx.NopLogger,
		fx.Provide(
			config.New,
			logs.New,
			postgres.New,
			postgres.NewUserRepository,
			postgres.NewLedgerRepository,
			impl.NewLedgerService,
		),
		fx.Populate(&ledger, &logger),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), lifecycle.DefaultTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		slog.Error("Failed to start reconcile", slog.Any("error", err))
		os.Exit(2)
	}

	os.Exit(run(ledger, logger, app))
}

func run(ledger usecase.LedgerUsecase, logger *slog.Logger, app *fx.App) int {
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), lifecycle.DefaultTimeout)
		defer cancel()
		if err := app.Stop(stopCtx); err != nil {
			logger.Warn("Failed to stop cleanly", slog.Any("error", err))
		}
	}()

	discrepancies, err := ledger.Reconcile(context.Background())
	if err != nil {
		logger.Error("Reconcile failed", slog.Any("error", err))

		return 2
	}

	for _, d := range discrepancies {
		logger.Error("Balance does not match ledger",
			slog.String("user_id", d.UserID.String()),
			slog.Int64("balance", d.Balance),
			slog.Int64("ledger_sum", d.LedgerSum),
		)
	}
	if len(discrepancies) > 0 {
		return 1
	}

	logger.Info("All balances match their ledgers")

	return 0
}
