package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/qrmuseum/museum-api/internal/utils"
)

// Context keys set by the JWT middlewares.
const (
	CtxUserID = "user_id" // uint64
	CtxRole   = "role"    // string
)

// JWTAuth returns an Echo middleware that validates a Bearer access token and
// injects the token's subject and role claims into the request context.
// Handlers read them via `c.Get("user_id")` (uint64) and `c.Get("role")`.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearer(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			if !authenticate(c, secret, raw) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			return next(c)
		}
	}
}

// OptionalJWT is JWTAuth for routes that also serve anonymous visitors.
// A request without an Authorization header passes through with no
// identity; a header that is present but invalid is still rejected.
func OptionalJWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get(echo.HeaderAuthorization) == "" {
				return next(c)
			}
			raw, ok := bearer(c)
			if !ok || !authenticate(c, secret, raw) {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			return next(c)
		}
	}
}

func bearer(c echo.Context) (string, bool) {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if !strings.HasPrefix(auth, "Bearer ") {
		return "", false
	}
	raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	return raw, raw != ""
}

func authenticate(c echo.Context, secret, raw string) bool {
	claims, err := utils.ParseAccessToken(secret, raw)
	if err != nil {
		return false
	}
	uid, _ := claims.UserID()
	c.Set(CtxUserID, uid)
	c.Set(CtxRole, claims.Role)
	return true
}
