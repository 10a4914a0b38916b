// Command receipts consumes payment.recorded events and appends each one
// to the receipt log.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliyamo/cable-billing/internal/config"
	"github.com/iliyamo/cable-billing/internal/logger"
	"github.com/iliyamo/cable-billing/internal/queue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoad()
	log := logger.New(cfg.Env)

	if cfg.AMQPURL == "" {
		log.Error("AMQP_URL (or RABBITMQ_URL) is required")
		os.Exit(1)
	}

	consumer := &queue.Consumer{
		URL:    cfg.AMQPURL,
		Log:    queue.NewReceiptLog(cfg.ReceiptLogPath),
		Logger: log,
	}
	log.Info("receipts consumer started",
		slog.String("queue", queue.PaymentRecordedQueue),
		slog.String("log", cfg.ReceiptLogPath))

	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("receipts consumer stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log.Info("receipts consumer stopped")
}
