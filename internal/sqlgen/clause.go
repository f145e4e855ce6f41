package sqlgen

import (
	"fmt"
	"strings"

	"github.com/roach88/docql/internal/dsl"
)

// rangeSymbols maps range operator keys to SQL comparison operators.
var rangeSymbols = map[string]string{
	"gt":  ">",
	"gte": ">=",
	"lt":  "<",
	"lte": "<=",
}

// CompileClause lowers one clause tree to a boolean SQL expression.
// A nil clause matches everything.
func (c *Compiler) CompileClause(clause dsl.Clause) (Fragment, error) {
	switch cl := clause.(type) {
	case nil, dsl.MatchAll:
		return Fragment{SQL: alwaysTrue}, nil
	case dsl.Bool:
		return c.compileBool(cl)
	case *dsl.Bool:
		return c.compileBool(*cl)
	case dsl.Match:
		return c.compileMatch(cl.Field, cl.Text)
	case dsl.MatchPhrase:
		return c.compileMatchPhrase(cl)
	case dsl.MultiMatch:
		return c.compileMultiMatch(cl)
	case dsl.Exists:
		return c.compileExists(cl)
	case dsl.Term:
		return c.compileTerm(cl)
	case dsl.Terms:
		return c.compileTerms(cl)
	case dsl.Range:
		return c.compileRange(cl)
	case dsl.Unknown:
		c.logger.Warn().Str("tag", cl.Tag).Msg("unknown query clause, matching every row")
		return Fragment{SQL: alwaysTrue}, nil
	default:
		return Fragment{}, invalidf("query", "unsupported clause type %T", clause)
	}
}

// compileTerm compiles field = ?.
func (c *Compiler) compileTerm(t dsl.Term) (Fragment, error) {
	field, err := LowerField(t.Field)
	if err != nil {
		return Fragment{}, invalid("term", err)
	}
	return Fragment{
		SQL:    field + " = ?",
		Params: []any{t.Value},
	}, nil
}

// compileTerms compiles field IN (?, ...). An empty list matches nothing.
func (c *Compiler) compileTerms(t dsl.Terms) (Fragment, error) {
	field, err := LowerField(t.Field)
	if err != nil {
		return Fragment{}, invalid("terms", err)
	}
	if len(t.Values) == 0 {
		return Fragment{SQL: alwaysFalse}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.Values)), ", ")
	params := make([]any, len(t.Values))
	copy(params, t.Values)

	return Fragment{
		SQL:    fmt.Sprintf("%s IN (%s)", field, placeholders),
		Params: params,
	}, nil
}

// compileMatch ANDs one LIKE per whitespace-separated token.
// Text with no tokens matches everything.
func (c *Compiler) compileMatch(ref, text string) (Fragment, error) {
	field, err := LowerField(ref)
	if err != nil {
		return Fragment{}, invalid("match", err)
	}
	return matchBlock(field, text), nil
}

// matchBlock builds the AND-of-LIKE block for an already lowered field.
func matchBlock(field, text string) Fragment {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return Fragment{SQL: alwaysTrue}
	}

	frags := make([]Fragment, len(tokens))
	for i, tok := range tokens {
		frags[i] = Fragment{
			SQL:    field + " LIKE ?",
			Params: []any{"%" + tok + "%"},
		}
	}
	return combine(frags, " AND ")
}

// compileMatchPhrase compiles a single LIKE over the whole phrase.
func (c *Compiler) compileMatchPhrase(m dsl.MatchPhrase) (Fragment, error) {
	field, err := LowerField(m.Field)
	if err != nil {
		return Fragment{}, invalid("match_phrase", err)
	}
	return Fragment{
		SQL:    field + " LIKE ?",
		Params: []any{"%" + m.Text + "%"},
	}, nil
}

// compileMultiMatch ORs one match block per field. Text with no tokens or
// no fields matches nothing.
func (c *Compiler) compileMultiMatch(m dsl.MultiMatch) (Fragment, error) {
	fields := make([]string, len(m.Fields))
	for i, ref := range m.Fields {
		field, err := LowerField(ref)
		if err != nil {
			return Fragment{}, invalid("multi_match", err)
		}
		fields[i] = field
	}

	if strings.TrimSpace(m.Text) == "" || len(fields) == 0 {
		return Fragment{SQL: alwaysFalse}, nil
	}

	blocks := make([]Fragment, len(fields))
	for i, field := range fields {
		blocks[i] = matchBlock(field, m.Text)
	}
	return combine(blocks, " OR "), nil
}

// compileRange ANDs one comparison per recognized bound, in gt, gte, lt, lte
// order. Unrecognized keys are skipped; no bounds matches everything.
func (c *Compiler) compileRange(r dsl.Range) (Fragment, error) {
	field, err := LowerField(r.Field)
	if err != nil {
		return Fragment{}, invalid("range", err)
	}

	var frags []Fragment
	for _, op := range dsl.RangeOps {
		bound, ok := r.Ops[op]
		if !ok {
			continue
		}
		frags = append(frags, Fragment{
			SQL:    fmt.Sprintf("%s %s ?", field, rangeSymbols[op]),
			Params: []any{bound},
		})
	}

	if len(frags) == 0 {
		return Fragment{SQL: alwaysTrue}, nil
	}
	return combine(frags, " AND "), nil
}

// compileExists compiles field IS NOT NULL. A missing field matches nothing.
func (c *Compiler) compileExists(e dsl.Exists) (Fragment, error) {
	if e.Field == "" {
		return Fragment{SQL: alwaysFalse}, nil
	}
	field, err := LowerField(e.Field)
	if err != nil {
		return Fragment{}, invalid("exists", err)
	}
	return Fragment{SQL: field + " IS NOT NULL"}, nil
}
