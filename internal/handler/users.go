package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cable-billing/internal/service"
)

// UserHandler serves the admin-only user management pages.
type UserHandler struct {
	responder
	Users *service.UserService
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{responder: responder{logger: logger}, Users: users}
}

// List handles GET /users.
func (h *UserHandler) List(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	users, err := h.Users.List(ctx, actor(c))
	if err != nil {
		return h.fail(c, err)
	}
	type row struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		IsAdmin  bool   `json:"is_admin"`
		Role     string `json:"role"`
	}
	rows := make([]row, 0, len(users))
	for _, u := range users {
		rows = append(rows, row{ID: u.ID, Username: u.Username, IsAdmin: u.IsAdmin, Role: u.Role()})
	}
	return h.render(c, http.StatusOK, "manage_users", echo.Map{"users": rows}, nil)
}

// ToggleAdmin handles POST /users/toggle_admin/:id.
func (h *UserHandler) ToggleAdmin(c echo.Context) error {
	id, ok := idParam(c)
	if !ok {
		return h.notFound(c, "User not found.")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	out, err := h.Users.ToggleAdmin(ctx, actor(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return h.redirect(c, "/users", out.Messages)
}

// Delete handles POST /users/delete/:id.
func (h *UserHandler) Delete(c echo.Context) error {
	id, ok := idParam(c)
	if !ok {
		return h.notFound(c, "User not found.")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	out, err := h.Users.Delete(ctx, actor(c), id)
	if err != nil {
		return h.fail(c, err)
	}
	return h.redirect(c, "/users", out.Messages)
}
