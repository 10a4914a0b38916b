// Package repository contains data access logic separated from HTTP handlers.
// This file holds the customer queries: CRUD, the transactional cascade
// delete and the name-ordered directory listings.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/cable-billing/internal/database"
	"github.com/iliyamo/cable-billing/internal/model"
)

// SearchScope selects the columns a free-text customer search looks at.
type SearchScope int

const (
	// SearchNameAndBox matches name and set-top-box number (dashboard).
	SearchNameAndBox SearchScope = iota
	// SearchDirectory also matches address and phone number.
	SearchDirectory
)

// CustomerFilter narrows a customer listing.  Zero values mean "no filter".
type CustomerFilter struct {
	Search string               // case-insensitive substring
	Scope  SearchScope          // columns Search applies to
	Status model.CustomerStatus // exact status match
}

const customerColumns = `id, name, address, phone_number, plan_details, monthly_charge,
	set_top_box_number, connection_date, status, notes`

// CustomerRepo encapsulates all database queries related to customers.
type CustomerRepo struct {
	db *sql.DB // db is the underlying database connection pool
}

// NewCustomerRepo constructs a CustomerRepo with the provided DB handle.
func NewCustomerRepo(db *sql.DB) *CustomerRepo {
	return &CustomerRepo{db: db}
}

// Create inserts a new customer.  On success c.ID holds the generated
// identifier.  A duplicate set-top-box number yields ErrSetTopBoxExists.
func (r *CustomerRepo) Create(ctx context.Context, c *model.Customer) error {
	const q = `INSERT INTO customer
		(name, address, phone_number, plan_details, monthly_charge,
		 set_top_box_number, connection_date, status, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		c.Name, c.Address, nullString(c.PhoneNumber), nullString(c.PlanDetails), c.MonthlyCharge,
		c.SetTopBoxNumber, nullDate(c.ConnectionDate), string(c.Status), nullString(c.Notes))
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ErrSetTopBoxExists
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("customer insert id: %w", err)
	}
	c.ID = id
	return nil
}

// GetByID fetches a customer or returns ErrCustomerNotFound.
func (r *CustomerRepo) GetByID(ctx context.Context, id int64) (*model.Customer, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+customerColumns+" FROM customer WHERE id = ?", id)
	c, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer %d: %w", id, err)
	}
	return c, nil
}

// ExistsBySetTopBox reports whether any customer uses the given number.
func (r *CustomerRepo) ExistsBySetTopBox(ctx context.Context, number string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM customer WHERE set_top_box_number = ?", number).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check set-top box number: %w", err)
	}
	return count > 0, nil
}

// Update rewrites every editable column of c.  The set-top-box number is
// not part of the statement and can never change.  Existence is checked
// inside the same transaction because MySQL reports zero affected rows
// for an update that changes nothing.
func (r *CustomerRepo) Update(ctx context.Context, c *model.Customer) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update customer: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if err = tx.Commit(); err != nil {
			err = fmt.Errorf("commit update customer: %w", err)
		}
	}()

	if err = customerExists(ctx, tx, c.ID); err != nil {
		return err
	}
	const q = `UPDATE customer
		SET name = ?, address = ?, phone_number = ?, plan_details = ?, monthly_charge = ?,
		    connection_date = ?, status = ?, notes = ?
		WHERE id = ?`
	if _, err = tx.ExecContext(ctx, q,
		c.Name, c.Address, nullString(c.PhoneNumber), nullString(c.PlanDetails), c.MonthlyCharge,
		nullDate(c.ConnectionDate), string(c.Status), nullString(c.Notes), c.ID); err != nil {
		return fmt.Errorf("update customer %d: %w", c.ID, err)
	}
	return nil
}

// DeleteCascade removes a customer and every payment that references it.
// Both deletes run in one transaction: either the customer and all of its
// payments are gone afterwards, or nothing changed.
func (r *CustomerRepo) DeleteCascade(ctx context.Context, id int64) (deletedPayments int64, err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete customer: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			deletedPayments = 0
			return
		}
		if err = tx.Commit(); err != nil {
			err = fmt.Errorf("commit delete customer: %w", err)
			deletedPayments = 0
		}
	}()

	if err = customerExists(ctx, tx, id); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM payment WHERE customer_id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("delete payments of customer %d: %w", id, err)
	}
	deletedPayments, _ = res.RowsAffected()
	if _, err = tx.ExecContext(ctx, "DELETE FROM customer WHERE id = ?", id); err != nil {
		return 0, fmt.Errorf("delete customer %d: %w", id, err)
	}
	return deletedPayments, nil
}

// List returns customers ordered by name matching the filter.
func (r *CustomerRepo) List(ctx context.Context, f CustomerFilter) ([]*model.Customer, error) {
	var (
		where []string
		args  []any
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if term := strings.TrimSpace(f.Search); term != "" {
		columns := []string{"name", "set_top_box_number"}
		if f.Scope == SearchDirectory {
			columns = append(columns, "address", "phone_number")
		}
		var ors []string
		for _, col := range columns {
			ors = append(ors, "LOWER(COALESCE("+col+", ''))"+likeClause)
			args = append(args, likePattern(term))
		}
		where = append(where, "("+strings.Join(ors, " OR ")+")")
	}

	q := "SELECT " + customerColumns + " FROM customer"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY name, id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	out := []*model.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return out, nil
}

// Counts returns the total number of customers and how many are Active.
func (r *CustomerRepo) Counts(ctx context.Context) (total, active int, err error) {
	const q = `SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) FROM customer`
	if err := r.db.QueryRowContext(ctx, q, string(model.StatusActive)).Scan(&total, &active); err != nil {
		return 0, 0, fmt.Errorf("count customers: %w", err)
	}
	return total, active, nil
}

func customerExists(ctx context.Context, tx *sql.Tx, id int64) error {
	var found int64
	err := tx.QueryRowContext(ctx, "SELECT id FROM customer WHERE id = ?", id).Scan(&found)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrCustomerNotFound
		}
		return fmt.Errorf("lookup customer %d: %w", id, err)
	}
	return nil
}

func scanCustomer(s rowScanner) (*model.Customer, error) {
	var (
		c                  model.Customer
		phone, plan, notes sql.NullString
		connection         sql.Null[model.Date]
		status             string
	)
	if err := s.Scan(&c.ID, &c.Name, &c.Address, &phone, &plan, &c.MonthlyCharge,
		&c.SetTopBoxNumber, &connection, &status, &notes); err != nil {
		return nil, err
	}
	c.PhoneNumber = phone.String
	c.PlanDetails = plan.String
	c.Notes = notes.String
	c.Status = model.CustomerStatus(status)
	if connection.Valid {
		d := connection.V
		c.ConnectionDate = &d
	}
	return &c, nil
}
