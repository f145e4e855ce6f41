// Package dsl defines the query description language accepted by docql.
//
// A request is data, not SQL: a boolean tree of clauses plus join, projection,
// sort, pagination and aggregation descriptors. The tree is modelled as a
// closed sum type so the compiler can switch over it exhaustively:
//
//	[JSON / YAML / CUE] -> decode -> Request{Query: Clause, ...} -> sqlgen
//
// # Clause kinds
//
//	Term         field = value
//	Terms        field IN (values...)        empty values match nothing
//	Match        AND of field LIKE %token%   empty text matches everything
//	MatchPhrase  field LIKE %phrase%
//	MultiMatch   OR of per-field Match blocks
//	Range        gt/gte/lt/lte comparisons   other keys are ignored
//	Exists       field IS NOT NULL
//	Bool         must/filter/should/must_not combinator
//	MatchAll     the default when a request carries no query
//	Unknown      an unrecognized tag; compiles to match-everything
//
// # Wire format
//
// On the wire a clause is an object keyed by its tag. An object that carries
// several tag keys resolves to the first one in the order
//
//	bool, match, match_phrase, multi_match, exists, term, terms, range
//
// and the remaining keys are dropped. That rule lives only in the decoder;
// once decoded, a Clause has exactly one kind.
//
// Lint reports every place where the compiler will fall back silently
// (unknown tags, ignored range operators, discarded should clauses, ...).
package dsl
