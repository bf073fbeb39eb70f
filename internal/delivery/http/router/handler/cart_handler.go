package handler

import (
	"log/slog"
	"net/http"

	"tradepost/internal/delivery/http/response"
	"tradepost/internal/domain/entity"
	"tradepost/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// CartHandlerParams holds dependencies for CartHandler, injected by Fx.
type CartHandlerParams struct {
	fx.In

	CartUC     usecase.CartUsecase
	CheckoutUC usecase.CheckoutUsecase
	Logger     *slog.Logger
}

// CartHandler serves the cart and checkout.
type CartHandler struct {
	cartUC     usecase.CartUsecase
	checkoutUC usecase.CheckoutUsecase
	logger     *slog.Logger
}

// NewCartHandler is the constructor for CartHandler.
func NewCartHandler(params CartHandlerParams) *CartHandler {
	return &CartHandler{
		cartUC:     params.CartUC,
		checkoutUC: params.CheckoutUC,
		logger:     params.Logger,
	}
}

// CheckoutForm is the checkout submission.
type CheckoutForm struct {
	DeliveryMethod string `form:"delivery_method" json:"delivery_method"`
	Address        string `form:"address" json:"address"`
	StationID      string `form:"station_id" json:"station_id"`
	Token          string `form:"token" json:"token"`
}

// AddItem puts a listed item in the caller's cart.
func (h *CartHandler) AddItem(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	itemID, ok, err := pathUUID(c, "item_id")
	if !ok {
		return err
	}

	cart, err := h.cartUC.AddItem(c.Request().Context(), userID, itemID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newCartView(cart), "Item added to cart")
}

// RemoveItem takes an item out of the caller's cart.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	itemID, ok, err := pathUUID(c, "item_id")
	if !ok {
		return err
	}

	cart, err := h.cartUC.RemoveItem(c.Request().Context(), userID, itemID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newCartView(cart), "Item removed from cart")
}

// GetCart returns the caller's cart with its total.
func (h *CartHandler) GetCart(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}

	cart, err := h.cartUC.GetCart(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newCartView(cart), "")
}

// Checkout converts the cart into an order. A replayed token returns the original order.
func (h *CartHandler) Checkout(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}

	var form CheckoutForm
	if err := c.Bind(&form); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid checkout input")
	}

	out, err := h.checkoutUC.Checkout(c.Request().Context(), &usecase.CheckoutInput{
		BuyerID: userID,
		Delivery: entity.Delivery{
			Method:  entity.DeliveryMethod(form.DeliveryMethod),
			Address: form.Address,
			Station: form.StationID,
		},
		Token: form.Token,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	status := http.StatusCreated
	if out.Replayed {
		status = http.StatusOK
	}

	return response.Success(c, status, map[string]any{
		"order_id": out.OrderID,
		"replayed": out.Replayed,
	}, "Order placed")
}
