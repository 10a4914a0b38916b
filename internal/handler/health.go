package handler

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Health answers liveness probes.  It pings the database so a lost
// connection shows up as 503.
func Health(db *sql.DB, logger *slog.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			logger.WarnContext(ctx, "health check: database ping failed", slog.String("error", err.Error()))
			return c.String(http.StatusServiceUnavailable, "DB ping failed")
		}
		return c.String(http.StatusOK, "ok")
	}
}
