package middleware

// identity.go holds the helpers that move the authenticated operator in
// and out of the Echo context.  JWTAuth stores it; handlers and the rate
// limiter read it.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cable-billing/internal/model"
)

const userKey = "user"

// SetUser stores u as the authenticated operator of the request.
func SetUser(c echo.Context, u model.User) { c.Set(userKey, u) }

// CurrentUser returns the authenticated operator, if any.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(userKey).(model.User)
	return u, ok && u.ID != 0
}

// userID returns the operator id as a string, or "guest".
func userID(c echo.Context) string {
	if u, ok := CurrentUser(c); ok {
		return strconv.FormatInt(u.ID, 10)
	}
	return "guest"
}
