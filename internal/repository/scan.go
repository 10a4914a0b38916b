package repository

import (
	"database/sql"
	"strings"

	"github.com/iliyamo/cable-billing/internal/model"
)

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// nullString stores empty optional text as NULL.
func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}

// nullDate stores a nil date as NULL.
func nullDate(d *model.Date) any {
	if d == nil {
		return nil
	}
	return *d
}

// likeClause compares against a likePattern.  '!' needs no quoting in
// either MySQL or SQLite string literals.
const likeClause = " LIKE ? ESCAPE '!'"

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// likePattern builds a case-insensitive substring pattern to be compared
// against LOWER(column) with likeClause.  Wildcards in term match
// literally.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(term))) + "%"
}
