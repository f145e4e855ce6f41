package sqlgen

import (
	"github.com/roach88/docql/internal/dsl"
)

// compileBool combines child clauses:
//  1. must and filter are merged into one AND group
//  2. should is compiled but discarded when that group is non-empty
//  3. otherwise should children are ORed into the group
//  4. every must_not child is ANDed in as NOT (child)
//  5. nothing at all matches everything
//
// Params follow the SQL text: group first, then must_not children.
func (c *Compiler) compileBool(b dsl.Bool) (Fragment, error) {
	andChildren := make([]dsl.Clause, 0, len(b.Must)+len(b.Filter))
	andChildren = append(andChildren, b.Must...)
	andChildren = append(andChildren, b.Filter...)

	andFrags, err := c.compileAll(andChildren)
	if err != nil {
		return Fragment{}, err
	}
	// Compiled even when discarded so bad identifiers are still rejected.
	shouldFrags, err := c.compileAll(b.Should)
	if err != nil {
		return Fragment{}, err
	}
	notFrags, err := c.compileAll(b.MustNot)
	if err != nil {
		return Fragment{}, err
	}

	var parts []Fragment
	switch {
	case len(andFrags) > 0:
		parts = append(parts, group(andFrags, " AND "))
	case len(shouldFrags) > 0:
		parts = append(parts, group(shouldFrags, " OR "))
	}

	for _, nf := range notFrags {
		parts = append(parts, Fragment{
			SQL:    "NOT (" + nf.SQL + ")",
			Params: nf.Params,
		})
	}

	if len(parts) == 0 {
		return Fragment{SQL: alwaysTrue}, nil
	}
	return combine(parts, " AND "), nil
}

func (c *Compiler) compileAll(clauses []dsl.Clause) ([]Fragment, error) {
	frags := make([]Fragment, 0, len(clauses))
	for _, child := range clauses {
		f, err := c.CompileClause(child)
		if err != nil {
			return nil, err
		}
		frags = append(frags, f)
	}
	return frags, nil
}

// group is combine that always parenthesizes, so a single child still
// reads as one unit next to must_not conjuncts.
func group(frags []Fragment, op string) Fragment {
	f := combine(frags, op)
	if len(frags) == 1 {
		f.SQL = "(" + f.SQL + ")"
	}
	return f
}
