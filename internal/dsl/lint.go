package dsl

import (
	"fmt"
	"strings"
)

// LintResult lists the silent fallbacks a request will trigger when compiled.
type LintResult struct {
	// Clean is true when the request compiles without any fallback.
	Clean bool `json:"clean"`

	// Warnings are human-readable, in traversal order.
	Warnings []string `json:"warnings"`
}

// Lint walks a request and reports every place where the compiler will
// quietly change or drop what was written:
//  1. Unknown clause tags match every row
//  2. Range keys other than gt/gte/lt/lte are ignored
//  3. should is discarded when must or filter is present
//  4. terms with no values matches nothing
//  5. match with no tokens matches everything
//  6. Unknown metric operators are dropped
//  7. Sort directions other than asc/desc sort ascending
//
// Lint does not check identifiers; the compiler rejects those outright.
// Lint is a pure function with no side effects.
func Lint(req *Request) LintResult {
	l := &linter{warnings: []string{}}
	if req != nil {
		l.lintClause(req.Query, "query")
		for i, s := range req.Sort {
			order := strings.ToLower(strings.TrimSpace(s.Order))
			if order != OrderAsc && order != OrderDesc && s.Order != "" {
				l.addWarning("sort[%d]: direction %q for %q is not asc/desc; sorting ascending", i, s.Order, s.Field)
			}
		}
		if req.Aggs != nil {
			for _, m := range req.Aggs.Metrics {
				if !isMetricOp(m.Op) {
					l.addWarning("aggs.metrics.%s: unknown operator %q; metric dropped", m.Alias, m.Op)
				}
			}
		}
	}

	return LintResult{
		Clean:    len(l.warnings) == 0,
		Warnings: l.warnings,
	}
}

type linter struct {
	warnings []string
}

func (l *linter) addWarning(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func (l *linter) lintClause(c Clause, path string) {
	switch clause := c.(type) {
	case nil, MatchAll, Term, MatchPhrase, Exists:
	case Unknown:
		l.addWarning("%s: unknown clause %q matches every row", path, clause.Tag)
	case Terms:
		if len(clause.Values) == 0 {
			l.addWarning("%s.terms: %q has no values and matches nothing", path, clause.Field)
		}
	case Match:
		if len(strings.Fields(clause.Text)) == 0 {
			l.addWarning("%s.match: %q has no tokens and matches every row", path, clause.Field)
		}
	case MultiMatch:
		if strings.TrimSpace(clause.Text) == "" || len(clause.Fields) == 0 {
			l.addWarning("%s.multi_match: empty query or field list matches nothing", path)
		}
	case Range:
		for _, key := range sortedKeys(clause.Ops) {
			if !isRangeOp(key) {
				l.addWarning("%s.range: operator %q on %q is ignored", path, key, clause.Field)
			}
		}
	case Bool:
		if len(clause.Must)+len(clause.Filter) > 0 && len(clause.Should) > 0 {
			l.addWarning("%s.bool: should is ignored because must/filter is present", path)
		}
		l.lintChildren(clause.Must, path+".bool.must")
		l.lintChildren(clause.Filter, path+".bool.filter")
		l.lintChildren(clause.Should, path+".bool.should")
		l.lintChildren(clause.MustNot, path+".bool.must_not")
	default:
		l.addWarning("%s: unsupported clause type %T", path, c)
	}
}

func (l *linter) lintChildren(children []Clause, path string) {
	for i, child := range children {
		l.lintClause(child, fmt.Sprintf("%s[%d]", path, i))
	}
}

func isRangeOp(op string) bool {
	for _, known := range RangeOps {
		if op == known {
			return true
		}
	}
	return false
}

func isMetricOp(op string) bool {
	op = strings.ToLower(op)
	for _, known := range MetricOps {
		if op == known {
			return true
		}
	}
	return false
}
