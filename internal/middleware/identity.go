package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserID returns the authenticated user id stored by JWTAuth or
// OptionalJWT. ok is false for anonymous requests.
func UserID(c echo.Context) (id uint64, ok bool) {
	id, ok = c.Get(CtxUserID).(uint64)
	return id, ok && id != 0
}

// userLabel renders the caller for keys and logs; "anon" when no user is
// authenticated.
func userLabel(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
