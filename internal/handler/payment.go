package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cable-billing/internal/service"
)

// PaymentHandler serves payment recording and the payments log.
type PaymentHandler struct {
	responder
	Payments *service.PaymentService
}

func NewPaymentHandler(payments *service.PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{responder: responder{logger: logger}, Payments: payments}
}

// RecordForm handles GET /payments/record.
func (h *PaymentHandler) RecordForm(c echo.Context) error {
	prefill, _ := strconv.ParseInt(c.QueryParam("customer_id_prefill"), 10, 64)
	ctx, cancel := dbContext(c)
	defer cancel()

	data, err := h.Payments.RecordForm(ctx, prefill)
	if err != nil {
		return h.fail(c, err)
	}
	return h.render(c, http.StatusOK, "record_payment", data, nil)
}

// Record handles POST /payments/record.
func (h *PaymentHandler) Record(c echo.Context) error {
	form, err := formValues(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid form"})
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	out, err := h.Payments.Record(ctx, actor(c), form)
	if err != nil {
		return h.fail(c, err)
	}
	if !out.OK() {
		data, err := h.Payments.RecordForm(ctx, 0)
		if err != nil {
			return h.fail(c, err)
		}
		return h.invalid(c, "record_payment", out, echo.Map{
			"customers":      data.Customers,
			"billing_months": data.BillingMonths,
			"billing_years":  data.BillingYears,
			"current_month":  data.CurrentMonth,
			"current_year":   data.CurrentYear,
			"today_date":     data.Today,
		})
	}
	return h.redirect(c, "/", out.Messages)
}

// Log handles GET /payments/log.
func (h *PaymentHandler) Log(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	page, err := h.Payments.Log(ctx, c.QueryParam("customer_name"), service.ParsePage(c.QueryParam("page")))
	if err != nil {
		return h.fail(c, err)
	}
	return h.render(c, http.StatusOK, "payments_log", page, nil)
}
