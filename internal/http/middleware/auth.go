package middleware

import (
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"github.com/labstack/echo/v4"
)

// AdminTokenAuth middleware guards admin endpoints with a shared bearer token.
// When ADMIN_TOKEN is unset every request is rejected.
func AdminTokenAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			expected := os.Getenv("ADMIN_TOKEN")
			if expected == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Admin API disabled")
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization header")
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization header format")
			}

			token := authHeader[7:]
			if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid token")
			}

			return next(c)
		}
	}
}
