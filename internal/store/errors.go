package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when an update or delete matches no row.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a write violates a constraint, such as a
	// duplicate id or a unique index.
	ErrConflict = errors.New("constraint conflict")

	// ErrInvalidSchema is returned for DDL rejected before reaching the
	// database: unknown column types, duplicate columns, empty indexes.
	ErrInvalidSchema = errors.New("invalid schema")
)

// ExecError reports a statement the database rejected. SQL is the exact
// statement text that was sent.
type ExecError struct {
	SQL string
	Err error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("execute %q: %v", e.SQL, e.Err)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// IsExecError checks if an error is an ExecError.
// Uses errors.As to handle wrapped errors.
func IsExecError(err error) bool {
	var e *ExecError
	return errors.As(err, &e)
}

func execError(query string, err error) error {
	return &ExecError{SQL: query, Err: mapSQLiteError(err)}
}

// mapSQLiteError converts driver errors to the package sentinels, keeping
// the driver error in the chain. Busy and locked errors are returned as is.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
			return fmt.Errorf("%w: %w", ErrConflict, err)
		}
		if sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("%w: %w", ErrConflict, err)
		}
	}

	return err
}
