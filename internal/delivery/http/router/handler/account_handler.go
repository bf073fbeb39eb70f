// Package handler contains the HTTP handlers for the application.
package handler

import (
	"log/slog"
	"net/http"

	"tradepost/internal/delivery/http/response"
	"tradepost/internal/delivery/http/validator"
	"tradepost/internal/domain/entity"
	"tradepost/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// AccountHandlerParams holds dependencies for AccountHandler, injected by Fx.
type AccountHandlerParams struct {
	fx.In

	AccountUC      usecase.AccountUsecase
	LedgerUC       usecase.LedgerUsecase
	ReferralUC     usecase.ReferralUsecase
	NotificationUC usecase.NotificationUsecase
	Logger         *slog.Logger
}

// AccountHandler serves registration, login and the caller's own account.
type AccountHandler struct {
	accountUC      usecase.AccountUsecase
	ledgerUC       usecase.LedgerUsecase
	referralUC     usecase.ReferralUsecase
	notificationUC usecase.NotificationUsecase
	logger         *slog.Logger
}

// NewAccountHandler is the constructor for AccountHandler.
func NewAccountHandler(params AccountHandlerParams) *AccountHandler {
	return &AccountHandler{
		accountUC:      params.AccountUC,
		ledgerUC:       params.LedgerUC,
		referralUC:     params.ReferralUC,
		notificationUC: params.NotificationUC,
		logger:         params.Logger,
	}
}

// RegisterRequest is the signup body. ReferralCode may also be a scanned QR payload.
type RegisterRequest struct {
	Name         string `json:"name" validate:"required"`
	Email        string `json:"email" validate:"required"`
	Password     string `json:"password" validate:"required"`
	ReferralCode string `json:"referral_code"`
}

// LoginRequest is the login body.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest carries the shipping contact fields.
type UpdateProfileRequest struct {
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
}

// AppealRequest is a banned user's appeal.
type AppealRequest struct {
	Text string `json:"text" validate:"required"`
}

// PreferenceRequest toggles the email copy of one notification kind.
type PreferenceRequest struct {
	Kind         string `json:"kind" validate:"required"`
	EmailEnabled *bool  `json:"email_enabled" validate:"required"`
}

// Register handles the user registration request.
func (h *AccountHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid registration input")
	}
	if err := c.Validate(&req); err != nil {
		return response.ValidationError(c, validator.FirstField(err))
	}

	user, err := h.accountUC.Register(c.Request().Context(), &usecase.RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, newUserView(user), "User registered successfully")
}

// Login handles the user login request.
func (h *AccountHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid login input")
	}
	if err := c.Validate(&req); err != nil {
		return response.ValidationError(c, validator.FirstField(err))
	}

	output, err := h.accountUC.Login(c.Request().Context(), &usecase.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, map[string]any{
		"access_token": output.AccessToken,
		"token_type":   "Bearer",
		"expires_at":   output.ExpiresAt,
		"user":         newUserView(output.User),
	}, "Login successful")
}

// GetProfile returns the caller's account with balance, points, level and tier.
func (h *AccountHandler) GetProfile(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}

	profile, err := h.accountUC.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newProfileView(profile), "Profile retrieved successfully")
}

// UpdateProfile stores the contact fields.
func (h *AccountHandler) UpdateProfile(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid profile input")
	}

	profile, err := h.accountUC.UpdateProfile(c.Request().Context(), userID, &usecase.UpdateProfileInput{
		Phone:   req.Phone,
		Address: req.Address,
		City:    req.City,
		State:   req.State,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newProfileView(profile), "Profile updated successfully")
}

// SubmitAppeal records the appeal of a banned user.
func (h *AccountHandler) SubmitAppeal(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}

	var req AppealRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid appeal input")
	}
	if err := c.Validate(&req); err != nil {
		return response.ValidationError(c, validator.FirstField(err))
	}

	if err := h.accountUC.SubmitAppeal(c.Request().Context(), userID, req.Text); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Appeal submitted")
}

// DeleteAccount anonymises the caller.
func (h *AccountHandler) DeleteAccount(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}

	if err := h.accountUC.DeleteAccount(c.Request().Context(), userID); err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, nil, "Account deleted")
}

// GetLedger returns the caller's ledger, newest first.
func (h *AccountHandler) GetLedger(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}

	limit, offset := pageParams(c)
	entries, err := h.ledgerUC.ListEntries(c.Request().Context(), userID, limit, offset)
	if err != nil {
		return errors.WithStack(err)
	}

	views := make([]*LedgerEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, newLedgerEntryView(e))
	}

	return response.Success(c, http.StatusOK, views, "")
}

// GetReferral returns the caller's code, signup link and referral count.
func (h *AccountHandler) GetReferral(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}

	summary, err := h.referralUC.Summary(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, summary, "")
}

// GetReferralQR renders the caller's signup link as a PNG.
func (h *AccountHandler) GetReferralQR(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}

	png, err := h.referralUC.QRCode(c.Request().Context(), userID)
	if err != nil {
		return errors.WithStack(err)
	}

	return c.Blob(http.StatusOK, "image/png", png)
}

// SetNotificationPreference stores the per-kind email opt-in.
func (h *AccountHandler) SetNotificationPreference(c echo.Context) error {
	userID, ok, err := currentUser(c)
	if !ok {
		return err
	}

	var req PreferenceRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "INVALID_INPUT", "Invalid preference input")
	}
	if err := c.Validate(&req); err != nil {
		return response.ValidationError(c, validator.FirstField(err))
	}

	pref, err := h.notificationUC.SetEmailPreference(c.Request().Context(), userID, entity.NotificationKind(req.Kind), *req.EmailEnabled)
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, pref, "Preference saved")
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"}, "Service is healthy")
}
