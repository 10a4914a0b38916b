package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/iliyamo/cable-billing/internal/metrics"
	"github.com/iliyamo/cable-billing/internal/model"
	"github.com/iliyamo/cable-billing/internal/queue"
	"github.com/iliyamo/cable-billing/internal/repository"
)

// PageSize is the number of payments per log page.
const PageSize = 15

const msgInvalidCustomer = "Invalid customer selected."

// EventPublisher delivers payment.recorded events.
type EventPublisher interface {
	PublishPaymentRecorded(ctx context.Context, ev queue.PaymentRecordedEvent) error
}

// PaymentService records payments and serves the payments log.
type PaymentService struct {
	customers *repository.CustomerRepo
	payments  *repository.PaymentRepo
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    *slog.Logger

	// Now is the clock used for form defaults and event timestamps.
	Now func() time.Time
}

func NewPaymentService(
	customers *repository.CustomerRepo,
	payments *repository.PaymentRepo,
	publisher EventPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
) *PaymentService {
	if publisher == nil {
		publisher = queue.NopPublisher{}
	}
	return &PaymentService{
		customers: customers,
		payments:  payments,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		Now:       time.Now,
	}
}

// RecordFormData feeds the record-payment form.
type RecordFormData struct {
	Customers         []*model.Customer `json:"customers"`
	BillingMonths     []MonthOption     `json:"billing_months"`
	BillingYears      []int             `json:"billing_years"`
	CurrentMonth      int               `json:"current_month"`
	CurrentYear       int               `json:"current_year"`
	Today             string            `json:"today_date"`
	CustomerIDPrefill int64             `json:"customer_id_prefill,omitempty"`
	DefaultAmount     *float64          `json:"default_amount,omitempty"`
}

// RecordForm lists the active customers and period choices.  When
// prefillID names an existing customer its monthly charge is offered as
// the default amount.
func (s *PaymentService) RecordForm(ctx context.Context, prefillID int64) (RecordFormData, error) {
	now := s.Now()
	active, err := s.customers.List(ctx, repository.CustomerFilter{Status: model.StatusActive})
	if err != nil {
		return RecordFormData{}, err
	}
	data := RecordFormData{
		Customers:         active,
		BillingMonths:     BillingMonths(),
		BillingYears:      BillingYears(now),
		CurrentMonth:      int(now.Month()),
		CurrentYear:       now.Year(),
		Today:             model.DateOf(now).String(),
		CustomerIDPrefill: prefillID,
	}
	if prefillID > 0 {
		c, err := s.customers.GetByID(ctx, prefillID)
		switch {
		case err == nil:
			charge := c.MonthlyCharge
			data.DefaultAmount = &charge
		case !errors.Is(err, repository.ErrCustomerNotFound):
			return RecordFormData{}, err
		}
	}
	return data, nil
}

// Record validates form and stores a payment received by actor.  A second
// payment for a period the customer already paid is stored as well and
// flagged with a warning.
func (s *PaymentService) Record(ctx context.Context, actor model.User, form Form) (Outcome, error) {
	var problems Problems

	var customer *model.Customer
	if id, err := strconv.ParseInt(form.Get("customer_id"), 10, 64); err == nil && id > 0 {
		customer, err = s.customers.GetByID(ctx, id)
		if err != nil && !errors.Is(err, repository.ErrCustomerNotFound) {
			return Outcome{}, err
		}
	}
	if customer == nil {
		problems.add("customer_id", msgInvalidCustomer)
	}

	p := &model.Payment{ReceivedBy: actor.Username}
	if actor.ID != 0 {
		uid := actor.ID
		p.UserID = &uid
	}

	if raw := form.Get("payment_date"); raw == "" {
		problems.add("payment_date", "Payment date is required.")
	} else if d, err := model.ParseDate(raw); err != nil {
		problems.add("payment_date", "Payment date must be in YYYY-MM-DD format.")
	} else {
		p.PaymentDate = d
	}

	if raw := form.Get("billing_period_month"); raw == "" {
		problems.add("billing_period_month", "Billing month is required.")
	} else {
		p.Period.Month = parseMonth(raw, &problems, "billing_period_month")
	}
	if raw := form.Get("billing_period_year"); raw == "" {
		problems.add("billing_period_year", "Billing year is required.")
	} else {
		p.Period.Year = parseYear(raw, &problems, "billing_period_year")
	}

	if raw := form.Get("amount_paid"); raw != "" {
		amount, err := parseAmount(raw)
		switch {
		case err != nil:
			problems.add("amount_paid", "Amount paid must be a number.")
		case amount <= 0:
			problems.add("amount_paid", "Amount paid must be greater than zero.")
		default:
			p.AmountPaid = amount
		}
	} else if customer != nil {
		p.AmountPaid = customer.MonthlyCharge
	}

	p.Method = model.PaymentMethod(form.Get("payment_method"))
	if p.Method == "" {
		p.Method = model.MethodCash
	} else if !p.Method.Valid() {
		problems.add("payment_method", "Payment method must be Cash or Online.")
	}
	if p.Method == model.MethodOnline {
		p.TransactionReference = form.Get("transaction_reference")
	}

	if len(problems) > 0 {
		return rejected(form, problems), nil
	}
	p.CustomerID = customer.ID

	duplicate, err := s.payments.Record(ctx, p)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			problems.add("customer_id", msgInvalidCustomer)
			return rejected(form, problems), nil
		}
		return Outcome{}, err
	}

	s.observe(p, duplicate)
	s.publish(ctx, customer, p, duplicate)

	out := Outcome{ID: p.ID}
	out.say(SeveritySuccess, fmt.Sprintf("Payment for %s recorded successfully!", customer.Name))
	if duplicate {
		out.say(SeverityWarning, fmt.Sprintf(
			"%s already had a payment for %s. This payment was recorded as well.",
			customer.Name, p.Period.Display()))
	}
	return out, nil
}

func (s *PaymentService) observe(p *model.Payment, duplicate bool) {
	if s.metrics == nil {
		return
	}
	s.metrics.PaymentsRecorded.WithLabelValues(string(p.Method)).Inc()
	s.metrics.AmountCollected.WithLabelValues(string(p.Method)).Add(p.AmountPaid)
	if duplicate {
		s.metrics.DuplicatePeriods.Inc()
	}
}

// publish is best-effort: the payment is already committed.
func (s *PaymentService) publish(ctx context.Context, c *model.Customer, p *model.Payment, duplicate bool) {
	ev := queue.PaymentRecordedEvent{
		PaymentID:       p.ID,
		CustomerID:      c.ID,
		CustomerName:    c.Name,
		SetTopBoxNumber: c.SetTopBoxNumber,
		AmountPaid:      p.AmountPaid,
		BillingMonth:    p.Period.Month,
		BillingYear:     p.Period.Year,
		PaymentMethod:   string(p.Method),
		PaymentDate:     p.PaymentDate.String(),
		ReceivedBy:      p.ReceivedBy,
		DuplicatePeriod: duplicate,
		RecordedAt:      s.Now().UTC().Format(time.RFC3339),
	}
	if err := s.publisher.PublishPaymentRecorded(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "payment event not published",
			slog.Int64("payment_id", p.ID), slog.String("error", err.Error()))
		if s.metrics != nil {
			s.metrics.EventPublishFails.Inc()
		}
	}
}

// Page is one page of the payments log.
type Page struct {
	Items        []*model.PaymentView `json:"items"`
	Page         int                  `json:"page"`
	PerPage      int                  `json:"per_page"`
	Total        int                  `json:"total"`
	Pages        int                  `json:"pages"`
	HasPrev      bool                 `json:"has_prev"`
	HasNext      bool                 `json:"has_next"`
	CustomerName string               `json:"customer_name"`
}

// Log returns page of the payments log, newest first, optionally limited
// to customers whose name contains customerName.  Page 1 always exists;
// any other page past the end is ErrPageNotFound.
func (s *PaymentService) Log(ctx context.Context, customerName string, page int) (Page, error) {
	if page < 1 {
		page = 1
	}
	total, err := s.payments.CountLog(ctx, customerName)
	if err != nil {
		return Page{}, err
	}
	pages := (total + PageSize - 1) / PageSize
	if page > pages && page != 1 {
		return Page{}, ErrPageNotFound
	}
	items, err := s.payments.Log(ctx, customerName, PageSize, (page-1)*PageSize)
	if err != nil {
		return Page{}, err
	}
	return Page{
		Items:        items,
		Page:         page,
		PerPage:      PageSize,
		Total:        total,
		Pages:        pages,
		HasPrev:      page > 1,
		HasNext:      page < pages,
		CustomerName: customerName,
	}, nil
}
