package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cable-billing/internal/config"
	"github.com/iliyamo/cable-billing/internal/middleware"
	"github.com/iliyamo/cable-billing/internal/model"
	"github.com/iliyamo/cable-billing/internal/service"
	"github.com/iliyamo/cable-billing/internal/utils"
)

// AuthHandler bundles dependencies for the login, logout and
// registration endpoints.
type AuthHandler struct {
	responder
	Cfg   config.Config
	Users *service.UserService
}

func NewAuthHandler(cfg config.Config, users *service.UserService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{responder: responder{logger: logger}, Cfg: cfg, Users: users}
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// LoginForm handles GET /login.
func (h *AuthHandler) LoginForm(c echo.Context) error {
	return h.render(c, http.StatusOK, "login", nil, nil)
}

// Login handles POST /login.  The access token is set as a cookie and
// also returned for API clients.
func (h *AuthHandler) Login(c echo.Context) error {
	form, err := formValues(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid form"})
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	u, out, err := h.Users.Authenticate(ctx, form.Get("username"), form["password"])
	if err != nil {
		return h.fail(c, err)
	}
	if !out.OK() {
		return h.invalid(c, "login", out, nil)
	}
	return h.signIn(c, u, out)
}

// RegisterForm handles GET /register.
func (h *AuthHandler) RegisterForm(c echo.Context) error {
	return h.render(c, http.StatusOK, "register", nil, nil)
}

// Register handles POST /register and logs the new user in.
func (h *AuthHandler) Register(c echo.Context) error {
	form, err := formValues(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid form"})
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	u, out, err := h.Users.Register(ctx, form)
	if err != nil {
		return h.fail(c, err)
	}
	if !out.OK() {
		return h.invalid(c, "register", out, nil)
	}
	return h.signIn(c, u, out)
}

// Logout handles POST /logout by expiring the access cookie.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     middleware.AccessCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.Cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return h.redirect(c, "/login", []service.Message{{
		Severity: service.SeverityInfo,
		Text:     "You have been logged out.",
	}})
}

func (h *AuthHandler) signIn(c echo.Context, u model.User, out service.Outcome) error {
	access, err := utils.NewAccessToken(h.Cfg.SecretKey,
		utils.Claims{UserID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin}, h.Cfg.AccessTTLMin)
	if err != nil {
		return h.fail(c, err)
	}
	c.SetCookie(&http.Cookie{
		Name:     middleware.AccessCookie,
		Value:    access.Token,
		Path:     "/",
		Expires:  access.Exp,
		HttpOnly: true,
		Secure:   h.Cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	c.Response().Header().Set(echo.HeaderLocation, "/")
	return c.JSON(http.StatusSeeOther, struct {
		View
		Access tokenPart  `json:"access"`
		User   model.User `json:"user"`
	}{
		View:   View{View: "redirect", Messages: out.Messages, Redirect: "/"},
		Access: tokenPart{Token: access.Token, Expires: access.Exp},
		User:   u,
	})
}
