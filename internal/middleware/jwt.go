package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cable-billing/internal/model"
	"github.com/iliyamo/cable-billing/internal/repository"
	"github.com/iliyamo/cable-billing/internal/utils"
)

// AccessCookie is the cookie the browser carries the access token in.
const AccessCookie = "access_token"

// UserLookup resolves the account a token names.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (model.User, error)
}

// JWTAuth returns an Echo middleware that requires a valid access token,
// taken from the Authorization bearer header or the access cookie, for an
// account that still exists.  The stored account, not the token claims,
// becomes the operator of the request.  Requests without one get a 401
// pointing at the login view and the access cookie is cleared.
func JWTAuth(secret string, users UserLookup) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := tokenFrom(c)
			if raw == "" {
				return unauthorized(c, "Please log in to access this page.")
			}
			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return unauthorized(c, "Your session has expired. Please log in again.")
			}
			u, err := users.GetByID(c.Request().Context(), claims.UserID)
			if errors.Is(err, repository.ErrUserNotFound) {
				return unauthorized(c, "Your account no longer exists. Please log in again.")
			}
			if err != nil {
				return fmt.Errorf("load user %d: %w", claims.UserID, err)
			}
			SetUser(c, u)
			return next(c)
		}
	}
}

func tokenFrom(c echo.Context) string {
	if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if ck, err := c.Cookie(AccessCookie); err == nil {
		return ck.Value
	}
	return ""
}

func unauthorized(c echo.Context, text string) error {
	if _, err := c.Cookie(AccessCookie); err == nil {
		c.SetCookie(&http.Cookie{Name: AccessCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true})
	}
	return c.JSON(http.StatusUnauthorized, echo.Map{
		"view":     "login",
		"data":     nil,
		"messages": []echo.Map{{"severity": "info", "text": text}},
		"redirect": "/login",
	})
}
