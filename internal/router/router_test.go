package router_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/cable-billing/internal/config"
	"github.com/iliyamo/cable-billing/internal/database/dbtest"
	"github.com/iliyamo/cable-billing/internal/handler"
	"github.com/iliyamo/cable-billing/internal/metrics"
	"github.com/iliyamo/cable-billing/internal/middleware"
	"github.com/iliyamo/cable-billing/internal/model"
	"github.com/iliyamo/cable-billing/internal/queue"
	"github.com/iliyamo/cable-billing/internal/repository"
	"github.com/iliyamo/cable-billing/internal/router"
	"github.com/iliyamo/cable-billing/internal/service"
	"github.com/iliyamo/cable-billing/internal/utils"
)

const secret = "router-test-secret"

type app struct {
	e     *echo.Echo
	users *repository.UserRepo
	admin string
	desk  string
}

func newApp(t *testing.T) *app {
	t.Helper()
	db := dbtest.New(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)

	customerRepo := repository.NewCustomerRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)
	userRepo := repository.NewUserRepo(db)

	cfg := config.Config{SecretKey: secret, AccessTTLMin: 60, BcryptCost: bcrypt.MinCost}
	users := service.NewUserService(userRepo, bcrypt.MinCost, logger)

	e := echo.New()
	router.RegisterRoutes(e, db, reg, logger)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, logger), cfg.RateLimit, nil, logger)
	router.RegisterPages(e, router.Handlers{
		Customers: handler.NewCustomerHandler(service.NewCustomerService(customerRepo, logger), logger),
		Payments: handler.NewPaymentHandler(
			service.NewPaymentService(customerRepo, paymentRepo, queue.NopPublisher{}, m, logger), logger),
		Reports: handler.NewReportHandler(service.NewReportService(customerRepo, paymentRepo, m), logger),
		Users:   handler.NewUserHandler(users, logger),
	}, secret, userRepo)

	a := &app{e: e, users: userRepo}
	a.admin = a.token(t, "boss", true)
	a.desk = a.token(t, "desk", false)
	return a
}

func (a *app) token(t *testing.T, username string, isAdmin bool) string {
	t.Helper()
	id, err := a.users.Create(context.Background(), username, "pw", isAdmin, bcrypt.MinCost)
	require.NoError(t, err)
	tok, err := utils.NewAccessToken(secret, utils.Claims{UserID: id, Username: username, IsAdmin: isAdmin}, 60)
	require.NoError(t, err)
	return tok.Token
}

func (a *app) do(t *testing.T, method, target, token string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.AccessCookie, Value: token})
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	View     string            `json:"view"`
	Data     json.RawMessage   `json:"data"`
	Messages []service.Message `json:"messages"`
	Redirect string            `json:"redirect"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var v envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (a *app) addCustomer(t *testing.T, name, box, charge string) {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/customers/add", a.desk, url.Values{
		"name": {name}, "address": {"1 Main St"}, "set_top_box_number": {box}, "monthly_charge": {charge},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
}

func TestPagesRequireLogin(t *testing.T) {
	a := newApp(t)
	for _, path := range []string{"/", "/customers", "/payments/log", "/reports", "/users"} {
		rec := a.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, "/login", decode(t, rec).Redirect)
	}
}

func TestHealthz(t *testing.T) {
	a := newApp(t)
	rec := a.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAddCustomerRedirectsAndRejectsDuplicateBox(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, http.MethodPost, "/customers/add", a.desk, url.Values{
		"name": {"Asha"}, "address": {"1 Main St"}, "set_top_box_number": {"STB-1"}, "monthly_charge": {"450"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/customers", rec.Header().Get(echo.HeaderLocation))
	v := decode(t, rec)
	require.Len(t, v.Messages, 1)
	assert.Equal(t, service.SeveritySuccess, v.Messages[0].Severity)

	rec = a.do(t, http.MethodPost, "/customers/add", a.desk, url.Values{
		"name": {"Other"}, "address": {"2 Main St"}, "set_top_box_number": {"STB-1"}, "monthly_charge": {"300"},
	})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	v = decode(t, rec)
	assert.Equal(t, "customer_form", v.View)

	var data struct {
		Form   map[string]string `json:"form"`
		Errors []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(v.Data, &data))
	assert.Equal(t, "Other", data.Form["name"])
	require.Len(t, data.Errors, 1)
	assert.Equal(t, "set_top_box_number", data.Errors[0].Field)
}

func TestUnknownCustomerIsNotFound(t *testing.T) {
	a := newApp(t)
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/customers/edit/999"},
		{http.MethodPost, "/customers/delete/999"},
		{http.MethodGet, "/customers/edit/abc"},
	} {
		var form url.Values
		if tc.method == http.MethodPost {
			form = url.Values{}
		}
		rec := a.do(t, tc.method, tc.path, a.desk, form)
		assert.Equal(t, http.StatusNotFound, rec.Code, tc.path)
		assert.Equal(t, "not_found", decode(t, rec).View)
	}
}

func TestRecordPaymentAndLog(t *testing.T) {
	a := newApp(t)
	a.addCustomer(t, "Asha", "STB-1", "450")

	rec := a.do(t, http.MethodGet, "/payments/record?customer_id_prefill=1", a.desk, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "record_payment", decode(t, rec).View)

	rec = a.do(t, http.MethodPost, "/payments/record", a.desk, url.Values{
		"customer_id": {"1"}, "payment_date": {"2024-06-10"},
		"billing_period_month": {"6"}, "billing_period_year": {"2024"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))

	rec = a.do(t, http.MethodPost, "/payments/record", a.desk, url.Values{"customer_id": {"42"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	v := decode(t, rec)
	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(v.Data, &data))
	assert.Contains(t, data, "customers")
	assert.Contains(t, data, "billing_months")

	rec = a.do(t, http.MethodGet, "/payments/log", a.desk, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page service.Page
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &page))
	assert.Equal(t, 1, page.Total)

	rec = a.do(t, http.MethodGet, "/payments/log?page=4", a.desk, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReports(t *testing.T) {
	a := newApp(t)
	a.addCustomer(t, "Asha", "STB-1", "450")
	today := model.Today().String()
	rec := a.do(t, http.MethodPost, "/payments/record", a.desk, url.Values{
		"customer_id": {"1"}, "payment_date": {today},
		"billing_period_month": {"6"}, "billing_period_year": {"2024"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodGet, "/reports/outstanding?month=6&year=2024", a.desk, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/reports/outstanding?month=13&year=2024", a.desk, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = a.do(t, http.MethodGet, "/reports/collections?start_date=2024-06-30&end_date=2024-06-01", a.desk, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = a.do(t, http.MethodGet, "/reports/collections.xlsx?start_date="+today+"&end_date="+today, a.desk, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "attachment")
	assert.NotZero(t, rec.Body.Len())

	rec = a.do(t, http.MethodGet, "/", a.desk, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	v := decode(t, rec)
	assert.Equal(t, "index", v.View)
	var dash service.Dashboard
	require.NoError(t, json.Unmarshal(v.Data, &dash))
	assert.Equal(t, 1, dash.TotalCustomers)
	assert.InDelta(t, 450, dash.CollectionsToday, 0.001)
}

func TestUserManagementIsAdminOnly(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, http.MethodGet, "/users", a.desk, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
	v := decode(t, rec)
	require.Len(t, v.Messages, 1)
	assert.Equal(t, "This page is accessible by administrators only.", v.Messages[0].Text)

	rec = a.do(t, http.MethodGet, "/users", a.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "manage_users", decode(t, rec).View)

	desk, err := a.users.GetByUsername(context.Background(), "desk")
	require.NoError(t, err)
	rec = a.do(t, http.MethodPost, "/users/toggle_admin/"+strconv.FormatInt(desk.ID, 10), a.admin, url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/users", rec.Header().Get(echo.HeaderLocation))

	desk, err = a.users.GetByUsername(context.Background(), "desk")
	require.NoError(t, err)
	assert.True(t, desk.IsAdmin)
}

func TestDeletedOperatorIsLoggedOut(t *testing.T) {
	a := newApp(t)
	a.addCustomer(t, "Asha", "STB-1", "450")

	desk, err := a.users.GetByUsername(context.Background(), "desk")
	require.NoError(t, err)
	rec := a.do(t, http.MethodPost, "/users/delete/"+strconv.FormatInt(desk.ID, 10), a.admin, url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = a.do(t, http.MethodGet, "/customers", a.desk, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "/login", decode(t, rec).Redirect)

	rec = a.do(t, http.MethodPost, "/payments/record", a.desk, url.Values{
		"customer_id": {"1"}, "payment_date": {"2024-06-10"},
		"billing_period_month": {"6"}, "billing_period_year": {"2024"},
	})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var cleared bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.AccessCookie && ck.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "access cookie not cleared")

	rec = a.do(t, http.MethodGet, "/payments/log", a.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page service.Page
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &page))
	assert.Zero(t, page.Total)
}

func TestDemotedAdminLosesAccessAtOnce(t *testing.T) {
	a := newApp(t)

	boss, err := a.users.GetByUsername(context.Background(), "boss")
	require.NoError(t, err)
	require.NoError(t, a.users.SetAdmin(context.Background(), boss.ID, false))

	rec := a.do(t, http.MethodGet, "/users", a.admin, nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))
}

func TestLoginSetsCookie(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, http.MethodPost, "/login", "", url.Values{"username": {"desk"}, "password": {"wrong"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = a.do(t, http.MethodPost, "/login", "", url.Values{"username": {"desk"}, "password": {"pw"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))

	var found bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == middleware.AccessCookie {
			found = true
			assert.NotEmpty(t, ck.Value)
			assert.True(t, ck.HttpOnly)
		}
	}
	assert.True(t, found, "access cookie not set")

	rec = a.do(t, http.MethodPost, "/logout", "", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))
}

func TestRegisterLogsIn(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, http.MethodPost, "/register", "", url.Values{"username": {"newbie"}, "password": {"pw"}})
	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())

	rec = a.do(t, http.MethodPost, "/register", "", url.Values{"username": {"newbie"}, "password": {"pw"}})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "register", decode(t, rec).View)
}
