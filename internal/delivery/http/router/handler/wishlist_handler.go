package handler

import (
	"log/slog"
	"net/http"

	"tradepost/internal/delivery/http/response"
	"tradepost/internal/delivery/http/validator"
	"tradepost/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// WishlistHandlerParams holds dependencies for WishlistHandler, injected by Fx.
type WishlistHandlerParams struct {
	fx.In

	WishlistUC usecase.WishlistUsecase
	Logger     *slog.Logger
}

// WishlistHandler holds dependencies for wishlist-related handlers
type WishlistHandler struct {
	wishlistUC usecase.WishlistUsecase
	logger     *slog.Logger
}

// NewWishlistHandler is the constructor for WishlistHandler
func NewWishlistHandler(params WishlistHandlerParams) *WishlistHandler {
	return &WishlistHandler{
		wishlistUC: params.WishlistUC,
		logger:     params.Logger,
	}
}

// AddWishlistRequest represents the request body for a new wishlist entry
type AddWishlistRequest struct {
	SearchType     string `json:"search_type" validate:"required,oneof=item category"`
	ItemName       string `json:"item_name"`
	Category       string `json:"category"`
	NotifyViaEmail bool   `json:"notify_via_email"`
	NotifyViaApp   bool   `json:"notify_via_app"`
}

// Add handles creating a wishlist entry
func (h *WishlistHandler) Add(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}

	var req AddWishlistRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid wishlist input")
	}
	if err := c.Validate(&req); err != nil {
		return response.ValidationError(c, validator.FirstField(err))
	}

	sub, err := h.wishlistUC.Subscribe(c.Request().Context(), &usecase.SubscribeInput{
		UserID:         userID,
		SearchType:     req.SearchType,
		ItemName:       req.ItemName,
		Category:       req.Category,
		NotifyViaEmail: req.NotifyViaEmail,
		NotifyViaApp:   req.NotifyViaApp,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, newWishlistView(sub), "Added to wishlist")
}

// List handles retrieving the caller's wishlist
func (h *WishlistHandler) List(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}

	subs, err := h.wishlistUC.ListSubscriptions(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	views := make([]*WishlistView, 0, len(subs))
	for _, s := range subs {
		views = append(views, newWishlistView(s))
	}

	return response.Success(c, http.StatusOK, views, "")
}

// Deactivate handles turning off a wishlist entry
func (h *WishlistHandler) Deactivate(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	subID, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}

	if err := h.wishlistUC.Deactivate(c.Request().Context(), userID, subID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Wishlist entry deactivated")
}
