package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cable-billing/internal/service"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler serves the dashboard and the report pages.
type ReportHandler struct {
	responder
	Reports *service.ReportService
}

func NewReportHandler(reports *service.ReportService, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{responder: responder{logger: logger}, Reports: reports}
}

// Dashboard handles GET / and GET /index.
func (h *ReportHandler) Dashboard(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	d, err := h.Reports.Dashboard(ctx, c.QueryParam("search_home"))
	if err != nil {
		return h.fail(c, err)
	}
	return h.render(c, http.StatusOK, "index", d, nil)
}

// Index handles GET /reports.
func (h *ReportHandler) Index(c echo.Context) error {
	return h.render(c, http.StatusOK, "reports", echo.Map{"report_type": nil}, nil)
}

// Outstanding handles GET /reports/outstanding?month=&year=.
func (h *ReportHandler) Outstanding(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	rep, out, err := h.Reports.Outstanding(ctx, c.QueryParam("month"), c.QueryParam("year"))
	if err != nil {
		return h.fail(c, err)
	}
	data := echo.Map{"report_type": "outstanding", "report": rep}
	if !out.OK() {
		return h.invalid(c, "reports", out, data)
	}
	return h.render(c, http.StatusOK, "reports", data, nil)
}

// Collections handles GET /reports/collections?start_date=&end_date=.
func (h *ReportHandler) Collections(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	rep, out, err := h.Reports.Collections(ctx, c.QueryParam("start_date"), c.QueryParam("end_date"))
	if err != nil {
		return h.fail(c, err)
	}
	data := echo.Map{"report_type": "collections", "report": rep}
	if !out.OK() {
		return h.invalid(c, "reports", out, data)
	}
	return h.render(c, http.StatusOK, "reports", data, nil)
}

// CollectionsXLSX handles GET /reports/collections.xlsx.
func (h *ReportHandler) CollectionsXLSX(c echo.Context) error {
	ctx, cancel := dbContext(c)
	defer cancel()

	start, end := c.QueryParam("start_date"), c.QueryParam("end_date")
	buf, out, err := h.Reports.CollectionsWorkbook(ctx, start, end)
	if err != nil {
		return h.fail(c, err)
	}
	if !out.OK() {
		return h.invalid(c, "reports", out, echo.Map{"report_type": "collections"})
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="collections_%s_%s.xlsx"`, start, end))
	return c.Blob(http.StatusOK, xlsxMIME, buf.Bytes())
}
