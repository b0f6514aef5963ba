package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

// sequenced lists the tables that carry a "<table>_sequence" counter.
var sequenced = map[string]bool{"users": true}

// NextSequence increments and returns the counter of table in a single statement.
//
// Sequence numbers order rows for humans (user #42); they are never used as keys.
func NextSequence(ctx context.Context, db *sql.DB, table string) (int, error) {
	if !sequenced[table] {
		return 0, fmt.Errorf("no sequence for table %q", table)
	}

	query := fmt.Sprintf("UPDATE %s_sequence SET value = value + 1 WHERE id = 1 RETURNING value", table)

	var sequence int
	if err := db.QueryRowContext(ctx, query).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to increment %s sequence: %w", table, err)
	}
	return sequence, nil
}

// isConstraintViolation reports whether err is a SQLite primary key or unique constraint failure.
func isConstraintViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.ExtendedCode {
	case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
		return true
	}
	return false
}
