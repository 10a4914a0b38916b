package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/iliyamo/cable-billing/internal/model"
)

const paymentViewColumns = `p.id, p.customer_id, p.user_id, p.payment_date, p.amount_paid,
	p.billing_period_month, p.billing_period_year, p.payment_method,
	p.transaction_reference, p.received_by, c.name, c.set_top_box_number`

// PaymentRepo persists payments and runs the period/date aggregations the
// reports are built from.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo constructs a PaymentRepo with the provided DB handle.
func NewPaymentRepo(db *sql.DB) *PaymentRepo {
	return &PaymentRepo{db: db}
}

// Record inserts p and reports whether the customer already had a payment
// for the same billing period.  A duplicate does not stop the insert.
// The lookup and the insert share a transaction so the flag describes the
// state the new row was written against.
func (r *PaymentRepo) Record(ctx context.Context, p *model.Payment) (duplicate bool, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin record payment: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if err = tx.Commit(); err != nil {
			err = fmt.Errorf("commit record payment: %w", err)
		}
	}()

	if err = customerExists(ctx, tx, p.CustomerID); err != nil {
		return false, err
	}

	var existing int
	if err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payment
		 WHERE customer_id = ? AND billing_period_month = ? AND billing_period_year = ?`,
		p.CustomerID, p.Period.Month, p.Period.Year).Scan(&existing); err != nil {
		return false, fmt.Errorf("check billing period: %w", err)
	}

	var userID any
	if p.UserID != nil {
		userID = *p.UserID
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO payment
		 (customer_id, user_id, payment_date, amount_paid, billing_period_month,
		  billing_period_year, payment_method, transaction_reference, received_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.CustomerID, userID, p.PaymentDate, p.AmountPaid, p.Period.Month,
		p.Period.Year, string(p.Method), nullString(p.TransactionReference), nullString(p.ReceivedBy))
	if err != nil {
		return false, fmt.Errorf("insert payment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("payment insert id: %w", err)
	}
	p.ID = id
	return existing > 0, nil
}

// CountForCustomer returns how many payments reference the customer.
func (r *PaymentRepo) CountForCustomer(ctx context.Context, customerID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM payment WHERE customer_id = ?", customerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count payments: %w", err)
	}
	return n, nil
}

// CountLog returns the number of payments whose customer name contains
// nameFilter (case-insensitive); an empty filter counts everything.
func (r *PaymentRepo) CountLog(ctx context.Context, nameFilter string) (int, error) {
	where, args := logWhere(nameFilter)
	var n int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM payment p JOIN customer c ON c.id = p.customer_id"+where, args...).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count payment log: %w", err)
	}
	return n, nil
}

// Log returns one page of payments newest first: payment date
// descending, then id descending.
func (r *PaymentRepo) Log(ctx context.Context, nameFilter string, limit, offset int) ([]*model.PaymentView, error) {
	where, args := logWhere(nameFilter)
	q := "SELECT " + paymentViewColumns + " FROM payment p JOIN customer c ON c.id = p.customer_id" +
		where + " ORDER BY p.payment_date DESC, p.id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)
	return r.queryViews(ctx, q, args...)
}

// Between returns every payment dated within [start, end] ordered by
// payment date ascending, then id ascending.
func (r *PaymentRepo) Between(ctx context.Context, start, end model.Date) ([]*model.PaymentView, error) {
	q := "SELECT " + paymentViewColumns + " FROM payment p JOIN customer c ON c.id = p.customer_id" +
		" WHERE p.payment_date >= ? AND p.payment_date <= ? ORDER BY p.payment_date ASC, p.id ASC"
	return r.queryViews(ctx, q, start, end)
}

// PaidCustomerIDs returns the distinct ids of customers holding at least
// one payment for the period.
func (r *PaymentRepo) PaidCustomerIDs(ctx context.Context, period model.BillingPeriod) (map[int64]struct{}, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT DISTINCT customer_id FROM payment
		 WHERE billing_period_month = ? AND billing_period_year = ?`,
		period.Month, period.Year)
	if err != nil {
		return nil, fmt.Errorf("paid customers for %s: %w", period.Display(), err)
	}
	defer rows.Close()

	paid := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan paid customer: %w", err)
		}
		paid[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate paid customers: %w", err)
	}
	return paid, nil
}

// SumOnDate totals the payments dated on day.  It is 0 when there are none.
func (r *PaymentRepo) SumOnDate(ctx context.Context, day model.Date) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(amount_paid), 0) FROM payment WHERE payment_date = ?", day).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum payments on %s: %w", day, err)
	}
	return total, nil
}

func (r *PaymentRepo) queryViews(ctx context.Context, q string, args ...any) ([]*model.PaymentView, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	out := []*model.PaymentView{}
	for rows.Next() {
		v, err := scanPaymentView(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return out, nil
}

func logWhere(nameFilter string) (string, []any) {
	if strings.TrimSpace(nameFilter) == "" {
		return "", nil
	}
	return " WHERE LOWER(c.name)" + likeClause, []any{likePattern(nameFilter)}
}

func scanPaymentView(s rowScanner) (*model.PaymentView, error) {
	var (
		v             model.PaymentView
		userID        sql.NullInt64
		method        string
		ref, received sql.NullString
	)
	if err := s.Scan(&v.ID, &v.CustomerID, &userID, &v.PaymentDate, &v.AmountPaid,
		&v.Period.Month, &v.Period.Year, &method, &ref, &received,
		&v.CustomerName, &v.SetTopBoxNumber); err != nil {
		return nil, err
	}
	if userID.Valid {
		id := userID.Int64
		v.UserID = &id
	}
	v.Method = model.PaymentMethod(method)
	v.TransactionReference = ref.String
	v.ReceivedBy = received.String
	v.PeriodDisplay = v.Period.Display()
	return &v, nil
}
