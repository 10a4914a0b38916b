package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cable-billing/internal/model"
	"github.com/iliyamo/cable-billing/internal/service"
)

// CustomerHandler serves the customer directory pages.
type CustomerHandler struct {
	responder
	Customers *service.CustomerService
}

func NewCustomerHandler(customers *service.CustomerService, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{responder: responder{logger: logger}, Customers: customers}
}

// List handles GET /customers.
func (h *CustomerHandler) List(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	search := c.QueryParam("search_customers")
	customers, err := h.Customers.List(ctx, search, service.ScopeDirectory)
	if err != nil {
		return h.fail(c, err)
	}
	return h.render(c, http.StatusOK, "customers", echo.Map{
		"customers":              customers,
		"search_query_customers": search,
	}, nil)
}

func (h *CustomerHandler) formData(isEdit bool, customer *model.Customer) echo.Map {
	return echo.Map{
		"is_edit":    isEdit,
		"customer":   customer,
		"statuses":   model.CustomerStatuses,
		"today_date": today(),
	}
}

// AddForm handles GET /customers/add.
func (h *CustomerHandler) AddForm(c echo.Context) error {
	return h.render(c, http.StatusOK, "customer_form", h.formData(false, nil), nil)
}

// Add handles POST /customers/add.
func (h *CustomerHandler) Add(c echo.Context) error {
	form, err := formValues(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid form"})
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	out, err := h.Customers.Create(ctx, form)
	if err != nil {
		return h.fail(c, err)
	}
	if !out.OK() {
		return h.invalid(c, "customer_form", out, h.formData(false, nil))
	}
	return h.redirect(c, "/customers", out.Messages)
}

// EditForm handles GET /customers/edit/:id.
func (h *CustomerHandler) EditForm(c echo.Context) error {
	id, ok := idParam(c)
	if !ok {
		return h.notFound(c, "Customer not found.")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	customer, err := h.Customers.Get(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	return h.render(c, http.StatusOK, "customer_form", h.formData(true, customer), nil)
}

// Edit handles POST /customers/edit/:id.
func (h *CustomerHandler) Edit(c echo.Context) error {
	id, ok := idParam(c)
	if !ok {
		return h.notFound(c, "Customer not found.")
	}
	form, err := formValues(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid form"})
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	out, err := h.Customers.Update(ctx, id, form)
	if err != nil {
		return h.fail(c, err)
	}
	if !out.OK() {
		customer, err := h.Customers.Get(ctx, id)
		if err != nil {
			return h.fail(c, err)
		}
		return h.invalid(c, "customer_form", out, h.formData(true, customer))
	}
	return h.redirect(c, "/customers", out.Messages)
}

// Delete handles POST /customers/delete/:id.
func (h *CustomerHandler) Delete(c echo.Context) error {
	id, ok := idParam(c)
	if !ok {
		return h.notFound(c, "Customer not found.")
	}
	ctx, cancel := dbContext(c)
	defer cancel()

	out, err := h.Customers.Delete(ctx, id)
	if err != nil {
		return h.fail(c, err)
	}
	return h.redirect(c, "/customers", out.Messages)
}
