package sqlgen

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/docql/internal/dsl"
	"github.com/roach88/docql/internal/ident"
)

func TestLowerJoins(t *testing.T) {
	got, err := LowerJoins([]dsl.Join{
		{Target: "orders", On: &dsl.JoinOn{Left: "users.id", Right: "orders.user_id"}},
		{Type: "inner", Target: "items", On: &dsl.JoinOn{Left: "orders.id", Right: "items.order_id", Op: "<>"}},
	})
	require.NoError(t, err)
	assert.Equal(t,
		`LEFT JOIN "orders" ON "users"."id" = "orders"."user_id" `+
			`INNER JOIN "items" ON "orders"."id" <> "items"."order_id"`,
		got)
}

func TestLowerJoins_Empty(t *testing.T) {
	got, err := LowerJoins(nil)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestLowerJoins_Rejects(t *testing.T) {
	on := &dsl.JoinOn{Left: "users.id", Right: "orders.user_id"}
	tests := []struct {
		name string
		join dsl.Join
		want string
	}{
		{"bad target", dsl.Join{Target: "orders; DROP", On: on}, "join target table"},
		{"missing on", dsl.Join{Target: "orders"}, "missing on condition"},
		{"missing right", dsl.Join{Target: "orders", On: &dsl.JoinOn{Left: "users.id"}}, "requires left and right"},
		{"bad type", dsl.Join{Type: "CROSS", Target: "orders", On: on}, "unsupported join type"},
		{"bad op", dsl.Join{Target: "orders", On: &dsl.JoinOn{Left: "a", Right: "b", Op: "LIKE"}}, "unsupported operator"},
		{"bad left", dsl.Join{Target: "orders", On: &dsl.JoinOn{Left: "a-b", Right: "b"}}, "column name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LowerJoins([]dsl.Join{tt.join})
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.Contains(t, err.Error(), "join[0]")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLowerSource(t *testing.T) {
	tests := []struct {
		source []string
		want   string
	}{
		{nil, "*"},
		{[]string{}, "*"},
		{[]string{"*"}, "*"},
		{[]string{"id", "users.name"}, `"id", "users"."name"`},
		{[]string{"name AS full_name"}, `"name" AS "full_name"`},
		{[]string{"name  as\tn"}, `"name" AS "n"`},
		{[]string{"profile->>city as city"}, `"profile" ->> '$.city' AS "city"`},
		{[]string{"alias"}, `"alias"`},
	}
	for _, tt := range tests {
		got, err := LowerSource(tt.source)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestLowerSource_Rejects(t *testing.T) {
	_, err := LowerSource([]string{"id", "name as bad-alias"})
	require.Error(t, err)
	assert.True(t, ident.IsIdentifierError(err))
	assert.Contains(t, err.Error(), "_source[1]")
	assert.Contains(t, err.Error(), "source alias")

	_, err = LowerSource([]string{"count(*)"})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestLowerSort(t *testing.T) {
	got, err := LowerSort([]dsl.SortField{
		{Field: "age", Order: "DESC"},
		{Field: "name", Order: "asc"},
		{Field: "id", Order: "sideways"},
		{Field: "created_at"},
	})
	require.NoError(t, err)
	assert.Equal(t, `ORDER BY "age" DESC, "name" ASC, "id" ASC, "created_at" ASC`, got)

	got, err = LowerSort(nil)
	require.NoError(t, err)
	assert.Equal(t, "", got)

	_, err = LowerSort([]dsl.SortField{{Field: "age; --"}})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

// Directions and metric operators are matched case-insensitively; only
// unrecognized words fall back.
func TestLowerSort_DirectionIgnoresCase(t *testing.T) {
	for _, order := range []string{"desc", "DESC", "Desc", " desc "} {
		got, err := LowerSort([]dsl.SortField{{Field: "age", Order: order}})
		require.NoError(t, err)
		assert.Equal(t, `ORDER BY "age" DESC`, got, "order %q", order)
	}
	for _, order := range []string{"descending", "down", "ASC"} {
		got, err := LowerSort([]dsl.SortField{{Field: "age", Order: order}})
		require.NoError(t, err)
		assert.Equal(t, `ORDER BY "age" ASC`, got, "order %q", order)
	}
}

func TestLowerAggs_OperatorIgnoresCase(t *testing.T) {
	c := NewCompiler(WithLogger(zerolog.Nop()))

	for _, op := range []string{"sum", "SUM", "Sum"} {
		projection, _, err := c.LowerAggs(&dsl.Aggs{
			Metrics: []dsl.Metric{{Alias: "total", Op: op, Field: "amount"}},
		})
		require.NoError(t, err)
		assert.Equal(t, `SUM("amount") AS "total"`, projection, "op %q", op)
	}
}

func TestLowerAggs(t *testing.T) {
	c := NewCompiler(WithLogger(zerolog.Nop()))

	projection, groupBy, err := c.LowerAggs(&dsl.Aggs{
		GroupBy: []string{"status", "users.team"},
		Metrics: []dsl.Metric{
			{Alias: "n", Op: "count", Field: "*"},
			{Alias: "avg_age", Op: "AVG", Field: "age"},
			{Alias: "top", Op: "max", Field: "score"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, `"status", "users"."team", COUNT(*) AS "n", AVG("age") AS "avg_age", MAX("score") AS "top"`, projection)
	assert.Equal(t, `"status", "users"."team"`, groupBy)
}

func TestLowerAggs_DropsUnknownOperator(t *testing.T) {
	var buf bytes.Buffer
	c := NewCompiler(WithLogger(zerolog.New(&buf)))

	projection, groupBy, err := c.LowerAggs(&dsl.Aggs{
		Metrics: []dsl.Metric{
			{Alias: "m", Op: "median", Field: "age"},
			{Alias: "total", Op: "sum", Field: "amount"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, `SUM("amount") AS "total"`, projection)
	assert.Equal(t, "", groupBy)
	assert.Contains(t, buf.String(), "median")
}

func TestLowerAggs_Rejects(t *testing.T) {
	c := NewCompiler(WithLogger(zerolog.Nop()))

	tests := []struct {
		name string
		aggs *dsl.Aggs
	}{
		{"nil", nil},
		{"empty", &dsl.Aggs{}},
		{"only unknown ops", &dsl.Aggs{Metrics: []dsl.Metric{{Alias: "m", Op: "median", Field: "x"}}}},
		{"bad alias", &dsl.Aggs{Metrics: []dsl.Metric{{Alias: "n)", Op: "count", Field: "*"}}}},
		{"bad group field", &dsl.Aggs{GroupBy: []string{"st atus"}}},
		{"bad metric field", &dsl.Aggs{Metrics: []dsl.Metric{{Alias: "n", Op: "sum", Field: "a+b"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := c.LowerAggs(tt.aggs)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
		})
	}
}
