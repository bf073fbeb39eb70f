package main

import (
	"context"

	"tradepost/config"
	"tradepost/internal/delivery"
	"tradepost/internal/delivery/http"
	"tradepost/internal/delivery/http/middleware"
	"tradepost/internal/delivery/http/router/handler"
	"tradepost/internal/domain/service"
	"tradepost/internal/infra/auth"
	"tradepost/internal/infra/imaging"
	logs "tradepost/internal/infra/log"
	"tradepost/internal/infra/mail"
	"tradepost/internal/infra/metrics"
	"tradepost/internal/infra/notification"
	"tradepost/internal/infra/persistence/postgres"
	"tradepost/internal/infra/pubsub"
	"tradepost/internal/infra/qrcode"
	"tradepost/internal/infra/realtime"
	"tradepost/internal/infra/scanner"
	"tradepost/internal/infra/storage"
	"tradepost/internal/usecase/impl"

	"go.uber.org/fx"
)

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			delivery.StartAll,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Options(
		fx.Provide(
			config.New,
			logs.New,
			context.Background,
			postgres.New,
			metrics.New,
			storage.New,
			storage.AsBlobStore,
			func() service.Clock { return service.SystemClock{} },
		),
		pubsub.Module,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			postgres.NewTransactionManager,
			postgres.NewUserRepository,
			postgres.NewItemRepository,
			postgres.NewLedgerRepository,
			postgres.NewReferralRepository,
			postgres.NewPointsRepository,
			postgres.NewCartRepository,
			postgres.NewOrderRepository,
			postgres.NewWishlistRepository,
			postgres.NewNotificationRepository,
			postgres.NewDeviceRepository,
			postgres.NewAuditRepository,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTService,
			qrcode.NewQRCodeService,
			scanner.New,
			imaging.NewValidator,
			mail.NewMailer,
			mail.NewMailQueue,
			notification.NewFirebaseService,
			realtime.NewRedisPublisher,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewLedgerService,
			impl.NewAuditService,
			impl.NewNotificationDispatcher,
			impl.NewNotificationService,
			impl.NewGamificationService,
			impl.NewReferralService,
			impl.NewAccountService,
			impl.NewDeviceService,
			impl.NewItemService,
			impl.NewModerationService,
			impl.NewCartService,
			impl.NewCheckoutService,
			impl.NewOrderService,
			impl.NewWishlistService,
			impl.NewWishlistMatcher,
			impl.NewJobHandler,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewAccountHandler,
			handler.NewDeviceHandler,
			handler.NewItemHandler,
			handler.NewCartHandler,
			handler.NewOrderHandler,
			handler.NewWishlistHandler,
			handler.NewNotificationHandler,
			handler.NewAdminHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				http.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}
