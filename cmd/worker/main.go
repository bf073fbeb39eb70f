// Command worker receives wishlist match jobs pushed by Pub/Sub and fans out the
// resulting notifications. It shares the database with the API but serves no API routes.
package main

import (
	"context"

	"tradepost/config"
	"tradepost/internal/delivery"
	"tradepost/internal/delivery/worker"
	"tradepost/internal/delivery/worker/handler"
	"tradepost/internal/domain/service"
	logs "tradepost/internal/infra/log"
	"tradepost/internal/infra/mail"
	"tradepost/internal/infra/metrics"
	"tradepost/internal/infra/notification"
	"tradepost/internal/infra/persistence/postgres"
	"tradepost/internal/infra/realtime"
	"tradepost/internal/usecase/impl"

	"go.uber.org/fx"
)

func main() {
	fx.New(
		fx.Module("infra",
			fx.Provide(
				config.New,
				logs.New,
				context.Background,
				postgres.New,
				metrics.New,
				func() service.Clock { return service.SystemClock{} },
			),
		),
		fx.Module("repository",
			fx.Provide(
				postgres.NewTransactionManager,
				postgres.NewItemRepository,
				postgres.NewWishlistRepository,
				postgres.NewNotificationRepository,
				postgres.NewDeviceRepository,
			),
		),
		fx.Module("notify",
			fx.Provide(
				mail.NewMailer,
				mail.NewMailQueue,
				notification.NewFirebaseService,
				realtime.NewRedisPublisher,
				impl.NewNotificationDispatcher,
			),
		),
		fx.Module("jobs",
			fx.Provide(
				impl.NewWishlistMatcher,
				impl.NewJobHandler,
				handler.NewPushHandler,
				fx.Annotate(worker.NewServer, fx.ResultTags(`group:"deliveries"`)),
			),
		),
		fx.Invoke(delivery.StartAll),
	).Run()
}
