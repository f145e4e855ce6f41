package sqlgen

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/roach88/docql/internal/logging"
)

// Predicates used where a clause has no condition to express.
const (
	alwaysTrue  = "1=1"
	alwaysFalse = "1=0"
)

// Fragment is a piece of SQL and the values bound to its placeholders,
// in text order.
type Fragment struct {
	SQL    string
	Params []any
}

// Compiler lowers dsl values to SQL.
type Compiler struct {
	logger   zerolog.Logger
	validate *validator.Validate
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for fallback warnings.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Compiler) {
		c.logger = l
	}
}

// NewCompiler creates a Compiler. Without WithLogger it logs through the
// process-wide logger.
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{
		logger:   logging.With().Str("component", "sqlgen").Logger(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// joinParts joins non-empty SQL fragments with single spaces.
func joinParts(parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// combine joins fragments with op (" AND " / " OR "), concatenating params in
// the same order. More than one fragment is wrapped in parentheses.
func combine(frags []Fragment, op string) Fragment {
	if len(frags) == 1 {
		return frags[0]
	}

	sqlParts := make([]string, 0, len(frags))
	var params []any
	for _, f := range frags {
		sqlParts = append(sqlParts, f.SQL)
		params = append(params, f.Params...)
	}
	return Fragment{
		SQL:    "(" + strings.Join(sqlParts, op) + ")",
		Params: params,
	}
}
