package store

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
)

// Execute runs a parameterized query and returns every row. The result is
// empty, never nil, when nothing matches. Failures are returned as
// *ExecError carrying the statement text.
func (s *Store) Execute(ctx context.Context, query string, params []any) ([]Row, error) {
	return execute(ctx, s.db, query, params)
}

// Execute runs a parameterized query inside the transaction.
func (t *Tx) Execute(ctx context.Context, query string, params []any) ([]Row, error) {
	return execute(ctx, t.tx, query, params)
}

func execute(ctx context.Context, q sqlx.QueryerContext, query string, params []any) ([]Row, error) {
	rows, err := q.QueryxContext(ctx, query, params...)
	if err != nil {
		return nil, execError(query, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, execError(query, err)
	}
	blob := blobColumns(rows)

	result := make([]Row, 0)
	for rows.Next() {
		values, err := rows.SliceScan()
		if err != nil {
			return nil, execError(query, err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok && !(i < len(blob) && blob[i]) {
				values[i] = string(b)
			}
		}
		result = append(result, NewRow(columns, values))
	}
	if err := rows.Err(); err != nil {
		return nil, execError(query, err)
	}

	return result, nil
}

// blobColumns marks columns declared BLOB; their []byte values are kept
// as is, everything else read as []byte is text.
func blobColumns(rows *sqlx.Rows) []bool {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil
	}
	blob := make([]bool, len(types))
	for i, ct := range types {
		blob[i] = strings.EqualFold(ct.DatabaseTypeName(), "BLOB")
	}
	return blob
}
