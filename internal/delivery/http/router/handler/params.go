package handler

import (
	"strconv"

	"tradepost/internal/delivery/http/middleware"
	"tradepost/internal/delivery/http/response"
	"tradepost/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// pageParams reads limit and offset. Missing or malformed values fall back to zero and the services clamp them.
func pageParams(c echo.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.QueryParam("limit"))
	offset, _ = strconv.Atoi(c.QueryParam("offset"))

	return limit, offset
}

// pathUUID parses a path parameter, writing the 400 response itself when it is malformed.
func pathUUID(c echo.Context, name string) (uuid.UUID, bool, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, false, response.BadRequest(c, "INVALID_ID", "Invalid "+name)
	}

	return id, true, nil
}

func currentUser(c echo.Context) (uuid.UUID, bool, error) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		return uuid.Nil, false, response.Unauthorized(c, "AUTH_REQUIRED", "Invalid user ID in token")
	}

	return userID, true, nil
}

func adminAction(c echo.Context, adminID uuid.UUID) usecase.AdminAction {
	return usecase.AdminAction{AdminID: adminID, IP: c.RealIP()}
}
