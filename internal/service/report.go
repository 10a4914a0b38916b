package service

import (
	"bytes"
	"context"
	"time"

	"github.com/iliyamo/cable-billing/internal/metrics"
	"github.com/iliyamo/cable-billing/internal/model"
	"github.com/iliyamo/cable-billing/internal/report"
	"github.com/iliyamo/cable-billing/internal/repository"
)

// ReportService computes the outstanding and collections reports and the
// dashboard snapshot.
type ReportService struct {
	customers *repository.CustomerRepo
	payments  *repository.PaymentRepo
	metrics   *metrics.Metrics

	// Now is the clock that defines "today" and the current period.
	Now func() time.Time
}

func NewReportService(customers *repository.CustomerRepo, payments *repository.PaymentRepo, m *metrics.Metrics) *ReportService {
	return &ReportService{customers: customers, payments: payments, metrics: m, Now: time.Now}
}

// OutstandingReport lists the Active customers without a payment for a
// billing period.  Requested is false when no period was submitted; Month
// and Year then hold the current period as form defaults.
type OutstandingReport struct {
	Requested     bool              `json:"requested"`
	Month         int               `json:"report_month"`
	Year          int               `json:"report_year"`
	MonthName     string            `json:"selected_month_name,omitempty"`
	Customers     []*model.Customer `json:"outstanding_customers"`
	BillingMonths []MonthOption     `json:"billing_months"`
	BillingYears  []int             `json:"billing_years"`
}

// Outstanding builds the outstanding report for the submitted month and
// year.  Both must be present for a report to be computed.
func (s *ReportService) Outstanding(ctx context.Context, rawMonth, rawYear string) (OutstandingReport, Outcome, error) {
	defer s.timed("outstanding")()

	now := s.Now()
	rep := OutstandingReport{
		Month:         int(now.Month()),
		Year:          now.Year(),
		Customers:     []*model.Customer{},
		BillingMonths: BillingMonths(),
		BillingYears:  BillingYears(now),
	}
	form := Form{"month": rawMonth, "year": rawYear}
	if form.Get("month") == "" || form.Get("year") == "" {
		return rep, Outcome{}, nil
	}

	var problems Problems
	month := parseMonth(form.Get("month"), &problems, "month")
	year := parseYear(form.Get("year"), &problems, "year")
	if len(problems) > 0 {
		return rep, rejected(form, problems), nil
	}

	period := model.BillingPeriod{Month: month, Year: year}
	customers, _, err := s.outstanding(ctx, period)
	if err != nil {
		return rep, Outcome{}, err
	}
	rep.Requested = true
	rep.Month, rep.Year = month, year
	rep.MonthName = period.MonthName()
	rep.Customers = customers
	return rep, Outcome{}, nil
}

// outstanding is a set difference: paid ids are loaded once, then the
// Active customers (already ordered by name) are filtered in one pass.
// The paid set is returned as well for callers that flag rows.
func (s *ReportService) outstanding(ctx context.Context, period model.BillingPeriod) ([]*model.Customer, map[int64]struct{}, error) {
	paid, err := s.payments.PaidCustomerIDs(ctx, period)
	if err != nil {
		return nil, nil, err
	}
	active, err := s.customers.List(ctx, repository.CustomerFilter{Status: model.StatusActive})
	if err != nil {
		return nil, nil, err
	}
	out := make([]*model.Customer, 0, len(active))
	for _, c := range active {
		if _, ok := paid[c.ID]; !ok {
			out = append(out, c)
		}
	}
	return out, paid, nil
}

// CollectionsReport lists the payments dated within an inclusive range.
type CollectionsReport struct {
	Requested   bool                 `json:"requested"`
	StartDate   string               `json:"start_date,omitempty"`
	EndDate     string               `json:"end_date,omitempty"`
	Today       string               `json:"today_date"`
	Collections []*model.PaymentView `json:"collections"`
	TotalCash   float64              `json:"total_cash"`
	TotalOnline float64              `json:"total_online"`
	GrandTotal  float64              `json:"grand_total"`
}

// Collections builds the collections report for [start, end].  A start
// after the end is refused with a warning and an empty result; the bounds
// are never swapped.
func (s *ReportService) Collections(ctx context.Context, rawStart, rawEnd string) (CollectionsReport, Outcome, error) {
	defer s.timed("collections")()

	rep := CollectionsReport{
		StartDate:   rawStart,
		EndDate:     rawEnd,
		Today:       model.DateOf(s.Now()).String(),
		Collections: []*model.PaymentView{},
	}
	form := Form{"start_date": rawStart, "end_date": rawEnd}
	if form.Get("start_date") == "" || form.Get("end_date") == "" {
		return rep, Outcome{}, nil
	}
	start, end, problems := parseRange(form)
	if len(problems) > 0 {
		return rep, rejected(form, problems), nil
	}

	rows, err := s.payments.Between(ctx, start, end)
	if err != nil {
		return rep, Outcome{}, err
	}
	rep.Requested = true
	rep.Collections = rows
	for _, p := range rows {
		switch p.Method {
		case model.MethodCash:
			rep.TotalCash += p.AmountPaid
		case model.MethodOnline:
			rep.TotalOnline += p.AmountPaid
		}
	}
	rep.GrandTotal = rep.TotalCash + rep.TotalOnline
	return rep, Outcome{}, nil
}

// CollectionsWorkbook renders the collections report as an XLSX file.
func (s *ReportService) CollectionsWorkbook(ctx context.Context, rawStart, rawEnd string) (*bytes.Buffer, Outcome, error) {
	defer s.timed("collections_xlsx")()

	form := Form{"start_date": rawStart, "end_date": rawEnd}
	if form.Get("start_date") == "" || form.Get("end_date") == "" {
		var problems Problems
		problems.add("", "Start date and end date are required.")
		return nil, rejected(form, problems), nil
	}
	rep, out, err := s.Collections(ctx, rawStart, rawEnd)
	if err != nil || !out.OK() {
		return nil, out, err
	}
	start, end, _ := parseRange(form)

	rows := make([]report.CollectionRow, 0, len(rep.Collections))
	for _, p := range rep.Collections {
		rows = append(rows, report.CollectionRow{
			PaymentDate:     p.PaymentDate,
			CustomerName:    p.CustomerName,
			SetTopBoxNumber: p.SetTopBoxNumber,
			Period:          p.PeriodDisplay,
			Method:          string(p.Method),
			Reference:       p.TransactionReference,
			ReceivedBy:      p.ReceivedBy,
			Amount:          p.AmountPaid,
		})
	}
	buf, err := report.CollectionsWorkbook(start, end, rows, report.Totals{
		Cash:   rep.TotalCash,
		Online: rep.TotalOnline,
		Grand:  rep.GrandTotal,
	})
	if err != nil {
		return nil, Outcome{}, err
	}
	return buf, Outcome{}, nil
}

func parseRange(form Form) (start, end model.Date, problems Problems) {
	start, err := model.ParseDate(form.Get("start_date"))
	if err != nil {
		problems.add("start_date", "Start date must be in YYYY-MM-DD format.")
	}
	end, err = model.ParseDate(form.Get("end_date"))
	if err != nil {
		problems.add("end_date", "End date must be in YYYY-MM-DD format.")
	}
	if len(problems) == 0 && start.After(end) {
		problems.warn("start_date", "Start date cannot be after end date.")
	}
	return start, end, problems
}

// HomeCustomer is a dashboard row.
type HomeCustomer struct {
	ID               int64                `json:"id"`
	Name             string               `json:"name"`
	SetTopBoxNumber  string               `json:"set_top_box_number"`
	MonthlyCharge    float64              `json:"monthly_charge"`
	Status           model.CustomerStatus `json:"status"`
	PaidCurrentMonth bool                 `json:"paid_current_month"`
}

// Dashboard is the home page snapshot.
type Dashboard struct {
	TotalCustomers   int            `json:"total_customers_count"`
	ActiveCustomers  int            `json:"active_customers_count"`
	OutstandingCount int            `json:"outstanding_payments_count"`
	CollectionsToday float64        `json:"collections_today"`
	CurrentPeriod    string         `json:"current_billing_period_display"`
	Search           string         `json:"search_term_home"`
	Customers        []HomeCustomer `json:"customers_list_on_home"`
}

// Dashboard computes the counters for the current month and today, and
// lists customers matching search by name or set-top-box number.
func (s *ReportService) Dashboard(ctx context.Context, search string) (Dashboard, error) {
	defer s.timed("dashboard")()

	now := s.Now()
	period := model.PeriodOf(now)
	d := Dashboard{CurrentPeriod: period.Display(), Search: search, Customers: []HomeCustomer{}}

	var err error
	if d.TotalCustomers, d.ActiveCustomers, err = s.customers.Counts(ctx); err != nil {
		return Dashboard{}, err
	}
	if d.CollectionsToday, err = s.payments.SumOnDate(ctx, model.DateOf(now)); err != nil {
		return Dashboard{}, err
	}

	unpaid, paid, err := s.outstanding(ctx, period)
	if err != nil {
		return Dashboard{}, err
	}
	d.OutstandingCount = len(unpaid)

	listed, err := s.customers.List(ctx, repository.CustomerFilter{Search: search, Scope: repository.SearchNameAndBox})
	if err != nil {
		return Dashboard{}, err
	}
	for _, c := range listed {
		_, ok := paid[c.ID]
		d.Customers = append(d.Customers, HomeCustomer{
			ID:               c.ID,
			Name:             c.Name,
			SetTopBoxNumber:  c.SetTopBoxNumber,
			MonthlyCharge:    c.MonthlyCharge,
			Status:           c.Status,
			PaidCurrentMonth: ok,
		})
	}
	return d, nil
}

func (s *ReportService) timed(name string) func() {
	if s.metrics == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		s.metrics.ReportDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}
}
