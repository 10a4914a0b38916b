package model

import (
	"fmt"
	"time"
)

// PaymentMethod is how a payment was collected.
type PaymentMethod string

const (
	MethodCash   PaymentMethod = "Cash"
	MethodOnline PaymentMethod = "Online"
)

// Valid reports whether m is Cash or Online.
func (m PaymentMethod) Valid() bool {
	return m == MethodCash || m == MethodOnline
}

// BillingPeriod is the (month, year) pair a payment is credited against,
// independent of the date it was actually paid.
type BillingPeriod struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

// PeriodOf returns the billing period containing t.
func PeriodOf(t time.Time) BillingPeriod {
	return BillingPeriod{Month: int(t.Month()), Year: t.Year()}
}

// Valid reports whether the month is within 1..12.
func (p BillingPeriod) Valid() bool {
	return p.Month >= 1 && p.Month <= 12
}

// MonthName returns the English month name or "" for an invalid month.
func (p BillingPeriod) MonthName() string {
	if !p.Valid() {
		return ""
	}
	return time.Month(p.Month).String()
}

// Display renders the period as e.g. "June 2024".
func (p BillingPeriod) Display() string {
	return fmt.Sprintf("%s %d", p.MonthName(), p.Year)
}

// Payment represents a single collection event as stored in the
// `payment` table.  A payment belongs to exactly one customer and is
// deleted with it.  UserID is a non-owning reference to the operator who
// recorded it and becomes nil when that user is removed.
//
// Fields:
//
//	ID                   – primary key identifier.
//	CustomerID           – owning customer.
//	UserID               – recording user (nullable).
//	PaymentDate          – day the money was received.
//	AmountPaid           – collected amount, always positive.
//	Period               – billing month/year credited.
//	Method               – Cash or Online.
//	TransactionReference – online transaction id, empty for cash.
//	ReceivedBy           – username of the recording user.
type Payment struct {
	ID                   int64         `json:"id"`                              // payment.id
	CustomerID           int64         `json:"customer_id"`                     // payment.customer_id
	UserID               *int64        `json:"user_id,omitempty"`               // payment.user_id
	PaymentDate          Date          `json:"payment_date"`                    // payment.payment_date
	AmountPaid           float64       `json:"amount_paid"`                     // payment.amount_paid
	Period               BillingPeriod `json:"billing_period"`                  // payment.billing_period_month/_year
	Method               PaymentMethod `json:"payment_method"`                  // payment.payment_method
	TransactionReference string        `json:"transaction_reference,omitempty"` // payment.transaction_reference
	ReceivedBy           string        `json:"received_by,omitempty"`           // payment.received_by
}

// PaymentView is a payment joined with the display fields of its customer,
// as shown in the payments log and the collections report.
type PaymentView struct {
	Payment
	CustomerName    string `json:"customer_name"`
	SetTopBoxNumber string `json:"set_top_box_number"`
	PeriodDisplay   string `json:"billing_period_display"`
}
