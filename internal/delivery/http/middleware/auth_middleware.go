package middleware

import (
	"slices"
	"strings"

	deliverycontext "tradepost/internal/delivery/context"
	"tradepost/internal/delivery/http/response"
	"tradepost/internal/domain/entity"
	"tradepost/internal/domain/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	contextKeyUserID = "userID"
	contextKeyRoles  = "roles"
)

// AuthMiddleware provides middleware for JWT authentication and authorization.
type AuthMiddleware struct {
	tokenSvc service.TokenService
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenSvc service.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc}
}

// Authenticate rejects requests without a valid bearer access token.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return response.Unauthorized(c, "AUTH_REQUIRED", "Authorization header is missing")
		}

		if !m.identify(c, authHeader) {
			return response.Unauthorized(c, "AUTH_REQUIRED", "Invalid or expired token")
		}

		return next(c)
	}
}

// OptionalAuthenticate identifies the caller when a valid token is present and lets anonymous requests through.
func (m *AuthMiddleware) OptionalAuthenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if authHeader := c.Request().Header.Get(echo.HeaderAuthorization); authHeader != "" {
			m.identify(c, authHeader)
		}

		return next(c)
	}
}

func (m *AuthMiddleware) identify(c echo.Context, authHeader string) bool {
	tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found || tokenString == "" {
		return false
	}

	claims, err := m.tokenSvc.ValidateToken(tokenString)
	if err != nil || claims.UserID == uuid.Nil {
		return false
	}

	c.Set(contextKeyUserID, claims.UserID)
	c.Set(contextKeyRoles, claims.Roles)
	c.SetRequest(c.Request().WithContext(deliverycontext.WithUser(c.Request().Context(), claims.UserID)))

	return true
}

// RequireRole is a middleware factory that checks if the user has a specific role.
// It must be used AFTER the Authenticate middleware.
func (m *AuthMiddleware) RequireRole(requiredRole entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			roles, ok := c.Get(contextKeyRoles).([]string)
			if !ok {
				return response.Forbidden(c, "FORBIDDEN", "Permission denied: role information missing")
			}

			if !slices.Contains(roles, requiredRole.String()) {
				return response.Forbidden(c, "FORBIDDEN", "Permission denied: require '"+requiredRole.String()+"' role")
			}

			return next(c)
		}
	}
}

// GetUserID returns the authenticated user's ID.
func GetUserID(c echo.Context) (uuid.UUID, bool) {
	userID, ok := c.Get(contextKeyUserID).(uuid.UUID)

	return userID, ok
}

// GetViewer returns the caller as a minimal user carrying ID and roles, or nil when anonymous.
func GetViewer(c echo.Context) *entity.User {
	userID, ok := GetUserID(c)
	if !ok {
		return nil
	}

	roles, _ := c.Get(contextKeyRoles).([]string)

	return &entity.User{ID: userID, Roles: entity.RolesFromStrings(roles)}
}
