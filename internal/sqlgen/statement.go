package sqlgen

import (
	"github.com/roach88/docql/internal/dsl"
	"github.com/roach88/docql/internal/ident"
)

// DefaultSize is the search page size used when neither the request nor the
// caller supplies one.
const DefaultSize = 10

// Statement is a complete parameterized SQL statement.
type Statement struct {
	SQL    string
	Params []any
}

// BuildSearch compiles a search request against table:
//
//	SELECT <projection> FROM "<table>" <joins> WHERE <cond> <order> LIMIT ? OFFSET ?
//
// The request's size wins over defaultSize; defaultSize <= 0 falls back to
// DefaultSize.
func (c *Compiler) BuildSearch(table string, req *dsl.Request, defaultSize int) (Statement, error) {
	if req == nil {
		req = &dsl.Request{}
	}
	from, err := c.prelude(table, req)
	if err != nil {
		return Statement{}, err
	}

	projection, err := LowerSource(req.Source)
	if err != nil {
		return Statement{}, err
	}
	joins, err := LowerJoins(req.Join)
	if err != nil {
		return Statement{}, err
	}
	where, err := c.CompileClause(req.Query)
	if err != nil {
		return Statement{}, err
	}
	order, err := LowerSort(req.Sort)
	if err != nil {
		return Statement{}, err
	}

	size := defaultSize
	if size <= 0 {
		size = DefaultSize
	}
	if req.Size != nil {
		size = *req.Size
	}
	offset := 0
	if req.From != nil {
		offset = *req.From
	}

	sql := joinParts(
		"SELECT "+projection,
		from,
		joins,
		"WHERE "+where.SQL,
		order,
		"LIMIT ? OFFSET ?",
	)
	params := append(append([]any{}, where.Params...), size, offset)

	return Statement{SQL: sql, Params: params}, nil
}

// BuildAggregate compiles an aggregation request against table:
//
//	SELECT <groups, metrics> FROM "<table>" <joins> WHERE <cond> GROUP BY <groups> <order> [LIMIT ?]
//
// There is no default limit; LIMIT is only emitted when the request has a size.
func (c *Compiler) BuildAggregate(table string, req *dsl.Request) (Statement, error) {
	if req == nil {
		req = &dsl.Request{}
	}
	from, err := c.prelude(table, req)
	if err != nil {
		return Statement{}, err
	}

	projection, groupBy, err := c.LowerAggs(req.Aggs)
	if err != nil {
		return Statement{}, err
	}
	joins, err := LowerJoins(req.Join)
	if err != nil {
		return Statement{}, err
	}
	where, err := c.CompileClause(req.Query)
	if err != nil {
		return Statement{}, err
	}
	order, err := LowerSort(req.Sort)
	if err != nil {
		return Statement{}, err
	}

	if groupBy != "" {
		groupBy = "GROUP BY " + groupBy
	}
	params := append([]any{}, where.Params...)
	limit := ""
	if req.Size != nil {
		limit = "LIMIT ?"
		params = append(params, *req.Size)
	}

	sql := joinParts(
		"SELECT "+projection,
		from,
		joins,
		"WHERE "+where.SQL,
		groupBy,
		order,
		limit,
	)
	return Statement{SQL: sql, Params: params}, nil
}

// prelude validates the table name and envelope, returning the FROM clause.
func (c *Compiler) prelude(table string, req *dsl.Request) (string, error) {
	if err := ident.Validate(table, ident.LabelTable); err != nil {
		return "", invalid("table", err)
	}
	if err := c.validate.Struct(req); err != nil {
		return "", invalid("request", err)
	}
	return "FROM " + ident.Quote(table), nil
}
