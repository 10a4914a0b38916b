package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ReceiptLog appends one line per recorded payment to a file.
type ReceiptLog struct {
	path string
	mu   sync.Mutex
}

// NewReceiptLog returns a ReceiptLog writing to path; parent directories
// are created on first write.
func NewReceiptLog(path string) *ReceiptLog {
	return &ReceiptLog{path: path}
}

// Handle decodes a payment.recorded body and appends its receipt line.
func (l *ReceiptLog) Handle(body []byte) error {
	var ev PaymentRecordedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.PaymentID == 0 {
		return errors.New("event without payment_id")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if err := writeReceipt(f, ev); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

func writeReceipt(w io.Writer, ev PaymentRecordedEvent) error {
	dup := ""
	if ev.DuplicatePeriod {
		dup = " | duplicate_period=true"
	}
	_, err := fmt.Fprintf(w,
		"[%s] Payment recorded | payment_id=%d | customer_id=%d | customer=%q | stb=%q | amount=%.2f | period=%02d/%d | method=%s | date=%s | received_by=%q%s\n",
		ev.RecordedAt, ev.PaymentID, ev.CustomerID, ev.CustomerName, ev.SetTopBoxNumber,
		ev.AmountPaid, ev.BillingMonth, ev.BillingYear, ev.PaymentMethod, ev.PaymentDate, ev.ReceivedBy, dup)
	return err
}

// Consumer reads payment.recorded deliveries and hands each body to a
// ReceiptLog.  It reconnects with exponential backoff until ctx is done.
type Consumer struct {
	URL    string
	Log    *ReceiptLog
	Logger *slog.Logger
}

// Run blocks until ctx is cancelled.  Processing errors reject the
// offending message without requeue so a bad payload cannot loop.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Logger.Warn("receipts: failed to dial broker",
				slog.String("error", err.Error()), slog.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Logger.Warn("receipts: consume loop ended; reconnecting", slog.Any("error", err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Logger.Warn("receipts: set QoS failed", slog.String("error", err.Error()))
	}
	if err := declare(ch); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(PaymentRecordedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Log.Handle(d.Body); err != nil {
				c.Logger.Error("receipts: handle message failed", slog.String("error", err.Error()))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
