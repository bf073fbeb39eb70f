// Package router contains routing and server setup for the HTTP delivery.
package router

import (
	"tradepost/config"
	"tradepost/internal/delivery/http/middleware"
	"tradepost/internal/delivery/http/router/handler"
	"tradepost/internal/domain/entity"
	"tradepost/internal/infra/metrics"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	AccountHandler      *handler.AccountHandler
	DeviceHandler       *handler.DeviceHandler
	ItemHandler         *handler.ItemHandler
	CartHandler         *handler.CartHandler
	OrderHandler        *handler.OrderHandler
	WishlistHandler     *handler.WishlistHandler
	NotificationHandler *handler.NotificationHandler
	AdminHandler        *handler.AdminHandler
	AuthMiddleware      *middleware.AuthMiddleware
	Metrics             *metrics.Metrics `optional:"true"`
	Config              *config.Config
}

// router holds all the handlers that need to be registered.
type router struct {
	account        *handler.AccountHandler
	device         *handler.DeviceHandler
	item           *handler.ItemHandler
	cart           *handler.CartHandler
	order          *handler.OrderHandler
	wishlist       *handler.WishlistHandler
	notification   *handler.NotificationHandler
	admin          *handler.AdminHandler
	authMiddleware *middleware.AuthMiddleware
	metrics        *metrics.Metrics
	config         *config.Config
}

// NewRouter is the constructor for the Router.
// Fx will inject the required handlers here.
func NewRouter(params RouterParams) *router {
	return &router{
		account:        params.AccountHandler,
		device:         params.DeviceHandler,
		item:           params.ItemHandler,
		cart:           params.CartHandler,
		order:          params.OrderHandler,
		wishlist:       params.WishlistHandler,
		notification:   params.NotificationHandler,
		admin:          params.AdminHandler,
		authMiddleware: params.AuthMiddleware,
		metrics:        params.Metrics,
		config:         params.Config,
	}
}

// RegisterRoutes sets up all the API routes for the application.
func (r *router) RegisterRoutes(e *echo.Echo) {
	auth := r.authMiddleware.Authenticate

	e.GET("/health", handler.HealthCheck)
	if r.metrics != nil {
		e.GET(r.config.Metrics.Path, echo.WrapHandler(r.metrics.Handler()))
	}
	e.GET("/media/*", r.item.ServeMedia)

	authGroup := e.Group("/auth")
	{
		authGroup.POST("/register", r.account.Register)
		authGroup.POST("/login", r.account.Login)
	}

	me := e.Group("/me", auth)
	{
		me.GET("", r.account.GetProfile)
		me.DELETE("", r.account.DeleteAccount)
		me.PUT("/profile", r.account.UpdateProfile)
		me.POST("/appeal", r.account.SubmitAppeal)
		me.GET("/ledger", r.account.GetLedger)
		me.GET("/referral", r.account.GetReferral)
		me.GET("/referral/qr", r.account.GetReferralQR)
		me.PUT("/notification-preferences", r.account.SetNotificationPreference)
		me.GET("/devices", r.device.ListDevices)
		me.POST("/devices", r.device.RegisterDevice)
		me.DELETE("/devices/:id", r.device.RemoveDevice)
	}

	items := e.Group("/items")
	{
		items.GET("", r.item.ListItems)
		items.GET("/mine", r.item.ListMine, auth)
		items.POST("/upload", r.item.Upload, auth)
		items.GET("/:id", r.item.GetItem, r.authMiddleware.OptionalAuthenticate)
		items.POST("/:id/withdraw", r.item.Withdraw, auth)
	}

	cart := e.Group("/cart", auth)
	{
		cart.GET("", r.cart.GetCart)
		cart.POST("/add/:item_id", r.cart.AddItem)
		cart.DELETE("/:item_id", r.cart.RemoveItem)
	}
	e.POST("/checkout", r.cart.Checkout, auth)

	orders := e.Group("/orders", auth)
	{
		orders.GET("", r.order.ListOrders)
		orders.GET("/:id", r.order.GetOrder)
	}

	wishlist := e.Group("/wishlist", auth)
	{
		wishlist.GET("", r.wishlist.List)
		wishlist.POST("/add", r.wishlist.Add)
		wishlist.DELETE("/:id", r.wishlist.Deactivate)
	}

	notifications := e.Group("/notifications", auth)
	{
		notifications.GET("", r.notification.List)
		notifications.GET("/unread_count", r.notification.UnreadCount)
		notifications.POST("/read_all", r.notification.MarkAllRead)
		notifications.POST("/:id/read", r.notification.MarkRead)
	}

	// Admin routes require the admin role on top of a valid token.
	admin := e.Group("/admin", auth, r.authMiddleware.RequireRole(entity.RoleAdmin))
	{
		admin.GET("/items/pending", r.admin.PendingItems)
		admin.POST("/items/:id/approve", r.admin.ApproveItem)
		admin.POST("/items/:id/reject", r.admin.RejectItem)
		admin.POST("/orders/:id/status", r.admin.UpdateOrderStatus)
		admin.POST("/users/:id/credits", r.admin.GrantCredits)
		admin.POST("/users/:id/ban", r.admin.BanUser)
		admin.POST("/users/:id/unban", r.admin.UnbanUser)
		admin.GET("/audit", r.admin.ListAudit)
		admin.GET("/ledger/reconcile", r.admin.Reconcile)
	}
}
