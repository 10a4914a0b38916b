package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher sends PaymentRecordedEvent messages to RabbitMQ.  A connection
// is dialled per publish; payments are recorded by hand at counter speed.
type Publisher struct {
	url string
}

// NewPublisher returns a Publisher for the broker at url.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// PublishPaymentRecorded publishes ev to the payment.recorded queue as a
// persistent message.  Errors are returned, not logged; the caller
// decides how much a lost event matters.
func (p *Publisher) PublishPaymentRecorded(ctx context.Context, ev PaymentRecordedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode payment event: %w", err)
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declare(ch); err != nil {
		return fmt.Errorf("declare %s: %w", PaymentRecordedQueue, err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", PaymentRecordedQueue, false, false, pub); err != nil {
		return fmt.Errorf("publish payment %d: %w", ev.PaymentID, err)
	}
	return nil
}

// NopPublisher drops every event.  It is used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishPaymentRecorded(context.Context, PaymentRecordedEvent) error { return nil }

func declare(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(
		PaymentRecordedQueue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	return err
}
