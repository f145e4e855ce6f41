// Package search runs search and aggregate requests: it compiles a
// dsl.Request into a statement and executes it through an Executor.
package search

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/roach88/docql/internal/canon"
	"github.com/roach88/docql/internal/dsl"
	"github.com/roach88/docql/internal/logging"
	"github.com/roach88/docql/internal/sqlgen"
	"github.com/roach88/docql/internal/store"
)

// Executor runs a parameterized statement. *store.Store and *store.Tx
// satisfy it.
type Executor interface {
	Execute(ctx context.Context, sql string, params []any) ([]store.Row, error)
}

// Kind selects which statement a request compiles to.
type Kind int

const (
	KindSearch Kind = iota
	KindAggregate
)

func (k Kind) String() string {
	if k == KindAggregate {
		return "aggregate"
	}
	return "search"
}

// Service compiles and runs requests. It is safe for concurrent use.
type Service struct {
	exec        Executor
	compiler    *sqlgen.Compiler
	defaultSize int
	lenient     bool
	logger      zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithDefaultSize sets the page size used when a search request has none.
func WithDefaultSize(n int) Option {
	return func(s *Service) {
		s.defaultSize = n
	}
}

// WithLenientReads makes execution failures non-fatal: they are logged at
// warn level and the request returns an empty result. Compile failures are
// still returned.
func WithLenientReads() Option {
	return func(s *Service) {
		s.lenient = true
	}
}

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// NewService creates a Service. A nil compiler gets a default one.
func NewService(exec Executor, compiler *sqlgen.Compiler, opts ...Option) *Service {
	s := &Service{
		exec:        exec,
		compiler:    compiler,
		defaultSize: sqlgen.DefaultSize,
		logger:      logging.With().Str("component", "search").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.compiler == nil {
		s.compiler = sqlgen.NewCompiler(sqlgen.WithLogger(s.logger))
	}
	return s
}

// Explain compiles req without running it.
func (s *Service) Explain(table string, req *dsl.Request, kind Kind) (sqlgen.Statement, error) {
	if kind == KindAggregate {
		return s.compiler.BuildAggregate(table, req)
	}
	return s.compiler.BuildSearch(table, req, s.defaultSize)
}

// Search returns the rows of table matching req, paginated by size/from.
func (s *Service) Search(ctx context.Context, table string, req *dsl.Request) ([]store.Row, error) {
	return s.run(ctx, table, req, KindSearch)
}

// Aggregate returns one row per group of table, with the requested metrics.
func (s *Service) Aggregate(ctx context.Context, table string, req *dsl.Request) ([]store.Row, error) {
	return s.run(ctx, table, req, KindAggregate)
}

func (s *Service) run(ctx context.Context, table string, req *dsl.Request, kind Kind) ([]store.Row, error) {
	st, err := s.Explain(table, req, kind)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", kind, table, err)
	}

	fingerprint, err := canon.Fingerprint(st)
	if err != nil {
		// Only unencodable params fail here; the driver will say more.
		fingerprint = ""
	}
	s.logger.Debug().
		Str("kind", kind.String()).
		Str("table", table).
		Str("sql", st.SQL).
		Int("params", len(st.Params)).
		Str("fingerprint", fingerprint).
		Msg("executing statement")

	rows, err := s.exec.Execute(ctx, st.SQL, st.Params)
	if err != nil {
		if !s.lenient {
			return nil, err
		}
		s.logger.Warn().
			Err(err).
			Str("kind", kind.String()).
			Str("sql", st.SQL).
			Str("fingerprint", fingerprint).
			Msg("statement failed, returning empty result")
		return []store.Row{}, nil
	}
	if rows == nil {
		rows = []store.Row{}
	}
	return rows, nil
}
