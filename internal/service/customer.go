package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/iliyamo/cable-billing/internal/model"
	"github.com/iliyamo/cable-billing/internal/repository"
)

// ListScope selects which columns a customer search covers.
type ListScope int

const (
	// ScopeHome searches name and set-top-box number.
	ScopeHome ListScope = iota
	// ScopeDirectory also searches address and phone number.
	ScopeDirectory
)

const msgSetTopBoxExists = "A customer with this Set-Top Box number already exists."

// CustomerService manages the customer directory.
type CustomerService struct {
	customers *repository.CustomerRepo
	logger    *slog.Logger
}

func NewCustomerService(customers *repository.CustomerRepo, logger *slog.Logger) *CustomerService {
	return &CustomerService{customers: customers, logger: logger}
}

// Create validates form and inserts a new customer.
func (s *CustomerService) Create(ctx context.Context, form Form) (Outcome, error) {
	c, problems := parseCustomer(form, true)
	if len(problems) == 0 {
		exists, err := s.customers.ExistsBySetTopBox(ctx, c.SetTopBoxNumber)
		if err != nil {
			return Outcome{}, err
		}
		if exists {
			problems.add("set_top_box_number", msgSetTopBoxExists)
		}
	}
	if len(problems) > 0 {
		return rejected(form, problems), nil
	}

	if err := s.customers.Create(ctx, c); err != nil {
		if errors.Is(err, repository.ErrSetTopBoxExists) {
			problems.add("set_top_box_number", msgSetTopBoxExists)
			return rejected(form, problems), nil
		}
		return Outcome{}, err
	}
	s.logger.InfoContext(ctx, "customer created",
		slog.Int64("customer_id", c.ID), slog.String("set_top_box_number", c.SetTopBoxNumber))

	out := Outcome{ID: c.ID}
	out.say(SeveritySuccess, fmt.Sprintf("Customer %s added successfully!", c.Name))
	return out, nil
}

// Update rewrites the editable fields of customer id.  A submitted
// set-top-box number is ignored and a blank status keeps the current one.
func (s *CustomerService) Update(ctx context.Context, id int64, form Form) (Outcome, error) {
	existing, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	c, problems := parseCustomer(form, false)
	if len(problems) > 0 {
		return rejected(form, problems), nil
	}
	c.ID = existing.ID
	c.SetTopBoxNumber = existing.SetTopBoxNumber
	if form.Get("status") == "" {
		c.Status = existing.Status
	}
	if err := s.customers.Update(ctx, c); err != nil {
		return Outcome{}, err
	}

	out := Outcome{ID: c.ID}
	out.say(SeveritySuccess, fmt.Sprintf("Customer %s updated successfully!", c.Name))
	return out, nil
}

// Delete removes customer id together with all of its payments.
func (s *CustomerService) Delete(ctx context.Context, id int64) (Outcome, error) {
	c, err := s.customers.GetByID(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	removed, err := s.customers.DeleteCascade(ctx, id)
	if err != nil {
		return Outcome{}, err
	}
	s.logger.InfoContext(ctx, "customer deleted",
		slog.Int64("customer_id", id), slog.Int64("payments_deleted", removed))

	out := Outcome{ID: id}
	out.say(SeveritySuccess, fmt.Sprintf("Customer %s and all their payments have been deleted.", c.Name))
	return out, nil
}

// Get returns customer id or repository.ErrCustomerNotFound.
func (s *CustomerService) Get(ctx context.Context, id int64) (*model.Customer, error) {
	return s.customers.GetByID(ctx, id)
}

// List returns customers ordered by name, filtered by a case-insensitive
// substring over the columns of scope.
func (s *CustomerService) List(ctx context.Context, search string, scope ListScope) ([]*model.Customer, error) {
	f := repository.CustomerFilter{Search: search, Scope: repository.SearchNameAndBox}
	if scope == ScopeDirectory {
		f.Scope = repository.SearchDirectory
	}
	return s.customers.List(ctx, f)
}

// parseCustomer validates the customer form.  withBox controls whether the
// set-top-box number is read; it is fixed after creation.
func parseCustomer(form Form, withBox bool) (*model.Customer, Problems) {
	var p Problems
	c := &model.Customer{
		Name:        form.Get("name"),
		Address:     form.Get("address"),
		PhoneNumber: form.Get("phone_number"),
		PlanDetails: form.Get("plan_details"),
		Notes:       strings.TrimSpace(form["notes"]),
		Status:      model.CustomerStatus(form.Get("status")),
	}

	if withBox {
		c.SetTopBoxNumber = form.Get("set_top_box_number")
		if c.SetTopBoxNumber == "" {
			p.add("set_top_box_number", "Set-Top Box number is required.")
		}
	}
	if c.Name == "" {
		p.add("name", "Name is required.")
	}
	if c.Address == "" {
		p.add("address", "Address is required.")
	}

	switch raw := form.Get("monthly_charge"); {
	case raw == "":
		p.add("monthly_charge", "Monthly charge is required.")
	default:
		charge, err := parseAmount(raw)
		switch {
		case err != nil:
			p.add("monthly_charge", "Monthly charge must be a number.")
		case charge <= 0:
			p.add("monthly_charge", "Monthly charge must be greater than zero.")
		default:
			c.MonthlyCharge = charge
		}
	}

	if c.Status == "" {
		c.Status = model.StatusActive
	} else if !c.Status.Valid() {
		p.add("status", "Status must be Active, Inactive or Suspended.")
	}

	if raw := form.Get("connection_date"); raw != "" {
		d, err := model.ParseDate(raw)
		if err != nil {
			p.add("connection_date", "Connection date must be in YYYY-MM-DD format.")
		} else {
			c.ConnectionDate = &d
		}
	}
	return c, p
}
