// Package queue defines message payloads exchanged over the message broker
// together with the publisher used by the server and the receipt consumer.
package queue

// PaymentRecordedQueue is the durable queue payment events are routed to.
const PaymentRecordedQueue = "payment.recorded"

// PaymentRecordedEvent is published after a payment has been committed.
// It carries enough of the customer to write a receipt line without
// querying the primary database.
type PaymentRecordedEvent struct {
	PaymentID       int64   `json:"payment_id"`
	CustomerID      int64   `json:"customer_id"`
	CustomerName    string  `json:"customer_name"`
	SetTopBoxNumber string  `json:"set_top_box_number"`
	AmountPaid      float64 `json:"amount_paid"`
	BillingMonth    int     `json:"billing_month"`
	BillingYear     int     `json:"billing_year"`
	PaymentMethod   string  `json:"payment_method"`
	PaymentDate     string  `json:"payment_date"`
	ReceivedBy      string  `json:"received_by"`
	DuplicatePeriod bool    `json:"duplicate_period"`
	RecordedAt      string  `json:"recorded_at"`
}
