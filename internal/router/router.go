// Package router wires the HTTP routes of the billing server.
package router

import (
	"database/sql"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cable-billing/internal/config"
	"github.com/iliyamo/cable-billing/internal/handler"
	"github.com/iliyamo/cable-billing/internal/middleware"
)

// Handlers groups the page handlers registered by RegisterPages.
type Handlers struct {
	Customers *handler.CustomerHandler
	Payments  *handler.PaymentHandler
	Reports   *handler.ReportHandler
	Users     *handler.UserHandler
}

// RegisterRoutes registers the routes that need no authentication: the
// health check and the Prometheus endpoint.
func RegisterRoutes(e *echo.Echo, db *sql.DB, reg *prometheus.Registry, logger *slog.Logger) {
	e.GET("/healthz", handler.Health(db, logger))
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
}

// RegisterAuth registers login, registration and logout.  The two
// credential endpoints sit behind the rate limiter.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, rl config.RateLimitConfig, rdb *redis.Client, logger *slog.Logger) {
	limiter := middleware.NewTokenBucket(rl, rdb, logger)

	e.GET("/login", a.LoginForm)
	e.POST("/login", a.Login, limiter)
	e.GET("/register", a.RegisterForm)
	e.POST("/register", a.Register, limiter)
	e.POST("/logout", a.Logout)
}

// RegisterPages registers every page that requires a logged-in operator
// whose account still exists.  Admin checks happen inside the user service.
func RegisterPages(e *echo.Echo, h Handlers, jwtSecret string, users middleware.UserLookup) {
	g := e.Group("", middleware.JWTAuth(jwtSecret, users))

	g.GET("/", h.Reports.Dashboard)
	g.GET("/index", h.Reports.Dashboard)

	g.GET("/customers", h.Customers.List)
	g.GET("/customers/add", h.Customers.AddForm)
	g.POST("/customers/add", h.Customers.Add)
	g.GET("/customers/edit/:id", h.Customers.EditForm)
	g.POST("/customers/edit/:id", h.Customers.Edit)
	g.POST("/customers/delete/:id", h.Customers.Delete)

	g.GET("/payments/record", h.Payments.RecordForm)
	g.POST("/payments/record", h.Payments.Record)
	g.GET("/payments/log", h.Payments.Log)

	g.GET("/reports", h.Reports.Index)
	g.GET("/reports/outstanding", h.Reports.Outstanding)
	g.GET("/reports/collections", h.Reports.Collections)
	g.GET("/reports/collections.xlsx", h.Reports.CollectionsXLSX)

	g.GET("/users", h.Users.List)
	g.POST("/users/toggle_admin/:id", h.Users.ToggleAdmin)
	g.POST("/users/delete/:id", h.Users.Delete)
}
