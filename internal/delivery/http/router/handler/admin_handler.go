package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tradepost/internal/delivery/http/response"
	"tradepost/internal/domain/entity"
	"tradepost/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// AdminHandlerParams holds dependencies for AdminHandler, injected by Fx.
type AdminHandlerParams struct {
	fx.In

	ModerationUC usecase.ModerationUsecase
	ItemUC       usecase.ItemUsecase
	OrderUC      usecase.OrderUsecase
	AccountUC    usecase.AccountUsecase
	AuditUC      usecase.AuditUsecase
	LedgerUC     usecase.LedgerUsecase
	Logger       *slog.Logger
}

// AdminHandler serves moderation, fulfilment and account administration.
type AdminHandler struct {
	moderationUC usecase.ModerationUsecase
	itemUC       usecase.ItemUsecase
	orderUC      usecase.OrderUsecase
	accountUC    usecase.AccountUsecase
	auditUC      usecase.AuditUsecase
	ledgerUC     usecase.LedgerUsecase
	logger       *slog.Logger
}

// NewAdminHandler is the constructor for AdminHandler.
func NewAdminHandler(params AdminHandlerParams) *AdminHandler {
	return &AdminHandler{
		moderationUC: params.ModerationUC,
		itemUC:       params.ItemUC,
		orderUC:      params.OrderUC,
		accountUC:    params.AccountUC,
		auditUC:      params.AuditUC,
		ledgerUC:     params.LedgerUC,
		logger:       params.Logger,
	}
}

// OrderStatusRequest moves an order.
type OrderStatusRequest struct {
	Status string `json:"status" form:"status"`
	Reason string `json:"reason" form:"reason"`
}

// GrantCreditsRequest is a manual credit grant.
type GrantCreditsRequest struct {
	Amount int64  `json:"amount" form:"amount"`
	Reason string `json:"reason" form:"reason"`
}

// BanRequest carries the ban reason.
type BanRequest struct {
	Reason string `json:"reason" form:"reason"`
}

// PendingItems returns the moderation queue.
func (h *AdminHandler) PendingItems(c echo.Context) error {
	limit, offset := pageParams(c)

	items, err := h.itemUC.ListPending(c.Request().Context(), limit, offset)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newItemViews(items), "")
}

// ApproveItem appraises a pending item and lists it.
func (h *AdminHandler) ApproveItem(c echo.Context) error {
	adminID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	itemID, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}

	value, err := strconv.ParseInt(strings.TrimSpace(c.FormValue("value")), 10, 64)
	if err != nil {
		return response.ValidationError(c, "value")
	}

	item, err := h.moderationUC.Approve(c.Request().Context(), &usecase.ApproveInput{
		AdminAction: adminAction(c, adminID),
		ItemID:      itemID,
		Value:       value,
		Notes:       c.FormValue("notes"),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newItemView(item), "Item approved")
}

// RejectItem rejects a pending item with a reason.
func (h *AdminHandler) RejectItem(c echo.Context) error {
	adminID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	itemID, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}

	item, err := h.moderationUC.Reject(c.Request().Context(), &usecase.RejectInput{
		AdminAction: adminAction(c, adminID),
		ItemID:      itemID,
		Reason:      c.FormValue("reason"),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newItemView(item), "Item rejected")
}

// UpdateOrderStatus moves an order forward or cancels it.
func (h *AdminHandler) UpdateOrderStatus(c echo.Context) error {
	adminID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	orderID, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}

	var req OrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid order status input")
	}

	order, err := h.orderUC.UpdateStatus(c.Request().Context(), &usecase.UpdateOrderStatusInput{
		AdminAction: adminAction(c, adminID),
		OrderID:     orderID,
		Status:      entity.OrderStatus(strings.ToLower(strings.TrimSpace(req.Status))),
		Reason:      req.Reason,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newOrderView(order), "Order updated")
}

// GrantCredits credits a user's balance.
func (h *AdminHandler) GrantCredits(c echo.Context) error {
	adminID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	userID, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}

	var req GrantCreditsRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid credit grant input")
	}

	entry, err := h.accountUC.GrantCredits(c.Request().Context(), &usecase.GrantCreditsInput{
		AdminAction: adminAction(c, adminID),
		UserID:      userID,
		Amount:      req.Amount,
		Reason:      req.Reason,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, newLedgerEntryView(entry), "Credits granted")
}

// BanUser bans a user with a reason.
func (h *AdminHandler) BanUser(c echo.Context) error {
	return h.setBan(c, true)
}

// UnbanUser lifts a ban.
func (h *AdminHandler) UnbanUser(c echo.Context) error {
	return h.setBan(c, false)
}

func (h *AdminHandler) setBan(c echo.Context, ban bool) error {
	adminID, ok, err := currentUser(c)
	if !ok {
		return err
	}
	userID, ok, err := pathUUID(c, "id")
	if !ok {
		return err
	}

	var req BanRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid ban input")
	}

	input := &usecase.BanInput{AdminAction: adminAction(c, adminID), UserID: userID, Reason: req.Reason}

	var user *entity.User
	if ban {
		user, err = h.accountUC.Ban(c.Request().Context(), input)
	} else {
		user, err = h.accountUC.Unban(c.Request().Context(), input)
	}
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newUserView(user), "")
}

// ListAudit queries the audit log by target or by admin and time range.
func (h *AdminHandler) ListAudit(c echo.Context) error {
	ctx := c.Request().Context()

	if targetType := c.QueryParam("target_type"); targetType != "" {
		targetID, err := uuid.Parse(c.QueryParam("target_id"))
		if err != nil {
			return response.ValidationError(c, "target_id")
		}

		entries, err := h.auditUC.ListByTarget(ctx, targetType, targetID)
		if err != nil {
			return errors.WithStack(err)
		}

		return response.Success(c, http.StatusOK, entries, "")
	}

	adminID, err := uuid.Parse(c.QueryParam("admin_id"))
	if err != nil {
		return response.ValidationError(c, "admin_id")
	}
	from, ok := parseTimeParam(c.QueryParam("from"))
	if !ok {
		return response.ValidationError(c, "from")
	}
	to, ok := parseTimeParam(c.QueryParam("to"))
	if !ok {
		return response.ValidationError(c, "to")
	}

	entries, err := h.auditUC.ListByAdmin(ctx, adminID, from, to)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, entries, "")
}

// parseTimeParam accepts RFC 3339 timestamps. An empty value is an open bound.
func parseTimeParam(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}

// Reconcile lists every balance that drifted from its ledger.
func (h *AdminHandler) Reconcile(c echo.Context) error {
	discrepancies, err := h.ledgerUC.Reconcile(c.Request().Context())
	if err != nil {
		return errors.WithStack(err)
	}
	if discrepancies == nil {
		discrepancies = []entity.BalanceDiscrepancy{}
	}

	return response.Success(c, http.StatusOK, discrepancies, "")
}
