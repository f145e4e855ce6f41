package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	"github.com/roach88/docql/internal/logging"
)

// DefaultBusyTimeout is the SQLite busy timeout in milliseconds.
const DefaultBusyTimeout = 5000

// Store provides access to one SQLite database.
type Store struct {
	db     *sqlx.DB
	logger zerolog.Logger
	ids    IDGenerator
}

type options struct {
	busyTimeout int
	logger      *zerolog.Logger
	ids         IDGenerator
}

// Option configures Open.
type Option func(*options)

// WithBusyTimeout sets how long, in milliseconds, a statement waits on a
// locked database before failing.
func WithBusyTimeout(ms int) Option {
	return func(o *options) {
		o.busyTimeout = ms
	}
}

// WithLogger sets the logger used for DDL and write events.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &l
	}
}

// WithIDGenerator sets how Insert assigns ids to records that have none.
func WithIDGenerator(g IDGenerator) Option {
	return func(o *options) {
		o.ids = g
	}
}

// Open creates or opens a SQLite database at the given path.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode
//   - a busy timeout (5s unless WithBusyTimeout is given)
//   - foreign key enforcement
func Open(path string, opts ...Option) (*Store, error) {
	o := options{busyTimeout: DefaultBusyTimeout, ids: UUIDv7{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ids == nil {
		o.ids = UUIDv7{}
	}
	if o.busyTimeout < 0 {
		return nil, fmt.Errorf("busy timeout must be >= 0, got %d", o.busyTimeout)
	}

	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Single writer to avoid SQLITE_BUSY errors
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db, o.busyTimeout); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	logger := logging.With().Str("component", "store").Logger()
	if o.logger != nil {
		logger = *o.logger
	}

	return &Store{db: db, logger: logger, ids: o.ids}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying handle for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// WithTx runs fn inside a transaction. The transaction commits when fn
// returns nil and rolls back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&Tx{tx: sqlTx, ids: s.ids}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil {
			s.logger.Error().Err(rbErr).Msg("rollback failed")
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", mapSQLiteError(err))
	}
	return nil
}

// Tx is an open transaction. It exposes the same write and read
// operations as Store; all of them run inside the transaction.
type Tx struct {
	tx  *sqlx.Tx
	ids IDGenerator
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sqlx.DB, busyTimeout int) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout),
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}
