package handlers

import (
	"net/http"

	"github.com/ecobin-app/backend/internal/apperr"
	"github.com/ecobin-app/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// getUserIDFromContext extracts the authenticated user id placed in the
// context by the JWT middleware, or 0 when unauthenticated.
func getUserIDFromContext(c echo.Context) uint {
	claims, ok := c.Get("user").(*models.JwtCustomClaims)
	if !ok || claims == nil {
		return 0
	}
	return claims.UserID
}

// httpError maps a typed application error to its HTTP equivalent.
func httpError(err error) *echo.HTTPError {
	switch apperr.CodeOf(err) {
	case apperr.CodeValidation:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case apperr.CodeNotFound:
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case apperr.CodeTransient:
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
