package main

import (
	"context"
	"errors"
	stdlog "log"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/iliyamo/cable-billing/internal/config"
	"github.com/iliyamo/cable-billing/internal/database"
	"github.com/iliyamo/cable-billing/internal/handler"
	"github.com/iliyamo/cable-billing/internal/logger"
	"github.com/iliyamo/cable-billing/internal/metrics"
	"github.com/iliyamo/cable-billing/internal/middleware"
	"github.com/iliyamo/cable-billing/internal/queue"
	"github.com/iliyamo/cable-billing/internal/repository"
	"github.com/iliyamo/cable-billing/internal/router"
	"github.com/iliyamo/cable-billing/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()
	log := logger.New(cfg.Env)

	db, dialect, err := database.Open(cfg.DatabaseURI)
	if err != nil {
		log.Error("failed to open database", slog.String("error", err.Error()))
		fatal(err)
	}
	defer db.Close()
	if err := database.Migrate(ctx, db, dialect); err != nil {
		log.Error("failed to migrate database", slog.String("error", err.Error()))
		fatal(err)
	}

	rdb := config.NewRedisClient(ctx, cfg.Redis)
	if rdb == nil {
		log.Info("redis unavailable; rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	var publisher service.EventPublisher = queue.NopPublisher{}
	if cfg.AMQPURL != "" {
		publisher = queue.NewPublisher(cfg.AMQPURL)
	} else {
		log.Info("AMQP_URL not set; payment events are not published")
	}

	customerRepo := repository.NewCustomerRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)
	userRepo := repository.NewUserRepo(db)

	users := service.NewUserService(userRepo, cfg.BcryptCost, log)
	customers := service.NewCustomerService(customerRepo, log)
	payments := service.NewPaymentService(customerRepo, paymentRepo, publisher, appMetrics, log)
	reports := service.NewReportService(customerRepo, paymentRepo, appMetrics)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("error", v.Error.Error()))
				log.LogAttrs(c.Request().Context(), slog.LevelError, "request", attrs...)
				return nil
			}
			log.LogAttrs(c.Request().Context(), slog.LevelDebug, "request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Metrics(appMetrics))

	router.RegisterRoutes(e, db, reg, log)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, log), cfg.RateLimit, rdb, log)
	router.RegisterPages(e, router.Handlers{
		Customers: handler.NewCustomerHandler(customers, log),
		Payments:  handler.NewPaymentHandler(payments, log),
		Reports:   handler.NewReportHandler(reports, log),
		Users:     handler.NewUserHandler(users, log),
	}, cfg.SecretKey, userRepo)

	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", slog.String("addr", addr), slog.String("env", cfg.Env),
			slog.String("database", string(dialect)))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", slog.String("error", err.Error()))
	}
}

func fatal(err error) {
	stdlog.Fatal(err)
}
