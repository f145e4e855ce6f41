// Package sqlgen compiles dsl requests to parameterized SQLite SQL.
//
// Every compile step returns SQL text plus an ordered parameter list:
//
//	dsl.Clause     -> CompileClause -> Fragment{SQL, Params}
//	[]dsl.Join     -> LowerJoins    -> "LEFT JOIN ..."
//	_source        -> LowerSource   -> projection
//	sort           -> LowerSort     -> "ORDER BY ..."
//	aggs           -> LowerAggs     -> projection + GROUP BY
//	dsl.Request    -> BuildSearch / BuildAggregate -> Statement{SQL, Params}
//
// Two rules hold for all output:
//   - values are never interpolated; each one is a ? placeholder with the
//     value appended to Params in text order
//   - identifiers are validated with package ident and double-quoted before
//     they are interpolated; a rejected identifier aborts compilation
//
// The one literal that is interpolated is the JSON path of a
// column->>path field reference. SQLite cannot bind a JSON path, so the path
// is embedded as a single-quoted string with quotes doubled. The path itself
// is not otherwise validated.
//
// A Compiler holds no per-call state and is safe for concurrent use.
package sqlgen
