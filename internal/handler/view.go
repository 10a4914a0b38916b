package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cable-billing/internal/middleware"
	"github.com/iliyamo/cable-billing/internal/model"
	"github.com/iliyamo/cable-billing/internal/repository"
	"github.com/iliyamo/cable-billing/internal/service"
)

// dbTimeout bounds the database work of a single request.
const dbTimeout = 5 * time.Second

// View is the response envelope of every page endpoint: the view to show,
// the values it needs, status messages and, after a mutation, where the
// client should go next.
type View struct {
	View     string            `json:"view"`
	Data     any               `json:"data"`
	Messages []service.Message `json:"messages"`
	Redirect string            `json:"redirect,omitempty"`
}

// responder holds what every handler needs to answer a request.
type responder struct {
	logger *slog.Logger
}

func (r responder) render(c echo.Context, status int, view string, data any, msgs []service.Message) error {
	if msgs == nil {
		msgs = []service.Message{}
	}
	return c.JSON(status, View{View: view, Data: data, Messages: msgs})
}

// redirect answers 303 See Other with a Location header.
func (r responder) redirect(c echo.Context, to string, msgs []service.Message) error {
	if msgs == nil {
		msgs = []service.Message{}
	}
	c.Response().Header().Set(echo.HeaderLocation, to)
	return c.JSON(http.StatusSeeOther, View{View: "redirect", Messages: msgs, Redirect: to})
}

// invalid answers 422 with the submitted form and its field errors so the
// client can redisplay the form unchanged.
func (r responder) invalid(c echo.Context, view string, out service.Outcome, extra echo.Map) error {
	form := out.Form
	if form == nil {
		form = service.Form{}
	}
	data := echo.Map{"form": form, "errors": out.Problems}
	for k, v := range extra {
		data[k] = v
	}
	return r.render(c, http.StatusUnprocessableEntity, view, data, out.Messages)
}

// fail maps service and repository errors to responses.  Anything
// unexpected is logged and answered with a generic 500.
func (r responder) fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrCustomerNotFound):
		return r.notFound(c, "Customer not found.")
	case errors.Is(err, repository.ErrUserNotFound):
		return r.notFound(c, "User not found.")
	case errors.Is(err, service.ErrPageNotFound):
		return r.notFound(c, "Page not found.")
	case errors.Is(err, service.ErrAdminRequired):
		return r.redirect(c, "/", []service.Message{{
			Severity: service.SeverityWarning,
			Text:     "This page is accessible by administrators only.",
		}})
	}
	r.logger.ErrorContext(c.Request().Context(), "request failed",
		slog.String("method", c.Request().Method),
		slog.String("path", c.Request().URL.Path),
		slog.String("error", err.Error()))
	return r.render(c, http.StatusInternalServerError, "error", nil, []service.Message{{
		Severity: service.SeverityDanger,
		Text:     "Something went wrong. Please try again.",
	}})
}

func (r responder) notFound(c echo.Context, text string) error {
	return r.render(c, http.StatusNotFound, "not_found", nil, []service.Message{{
		Severity: service.SeverityDanger,
		Text:     text,
	}})
}

// formValues copies the submitted form fields, first value per key.
func formValues(c echo.Context) (service.Form, error) {
	params, err := c.FormParams()
	if err != nil {
		return nil, err
	}
	form := make(service.Form, len(params))
	for k, vs := range params {
		if len(vs) > 0 {
			form[k] = vs[0]
		}
	}
	return form, nil
}

// idParam parses the :id path parameter.
func idParam(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

func dbContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

func actor(c echo.Context) model.User {
	u, _ := middleware.CurrentUser(c)
	return u
}

func today() string { return model.Today().String() }
