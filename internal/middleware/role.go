package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
)

// Role returns the role JWTAuth stored for the caller, or "" when the
// request carries no identity.
func Role(c echo.Context) string {
	role, _ := c.Get(CtxRole).(string)
	return role
}

// RequireRole lets the request through when the caller's role is one of
// roles. It must run after JWTAuth: a request without an identity gets 401,
// an identity with another role gets 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role := Role(c)
			if role == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			if !slices.Contains(roles, role) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient role"})
			}
			return next(c)
		}
	}
}
