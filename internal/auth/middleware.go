package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sheet-dashboard/backend/internal/models"
)

const (
	userContextKey  = "auth.user"
	tokenContextKey = "auth.token"
)

// BearerToken extracts the token from an Authorization header.
func BearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// RequireUser rejects requests without a valid session token.
func RequireUser(s *Sessions) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := BearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			user, ok := s.Lookup(token)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			c.Set(userContextKey, user)
			c.Set(tokenContextKey, token)
			return next(c)
		}
	}
}

// RequireAdmin rejects requests from anyone but an admin.
func RequireAdmin(s *Sessions) echo.MiddlewareFunc {
	requireUser := RequireUser(s)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return requireUser(func(c echo.Context) error {
			if !CurrentUser(c).IsAdmin() {
				return echo.NewHTTPError(http.StatusForbidden, "admin access required")
			}
			return next(c)
		})
	}
}

// CurrentUser returns the user set by RequireUser, or nil.
func CurrentUser(c echo.Context) *models.User {
	u, _ := c.Get(userContextKey).(*models.User)
	return u
}

// CurrentToken returns the token set by RequireUser.
func CurrentToken(c echo.Context) string {
	t, _ := c.Get(tokenContextKey).(string)
	return t
}
