package sqlgen

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/docql/internal/dsl"
)

func TestCompileBool(t *testing.T) {
	c := NewCompiler(WithLogger(zerolog.Nop()))

	active := dsl.Term{Field: "status", Value: "active"}
	adult := dsl.Range{Field: "age", Ops: map[string]any{"gte": int64(18)}}
	named := dsl.Exists{Field: "name"}

	tests := []struct {
		name       string
		clause     dsl.Bool
		wantSQL    string
		wantParams []any
	}{
		{
			name:    "empty",
			clause:  dsl.Bool{},
			wantSQL: "1=1",
		},
		{
			name:       "must only",
			clause:     dsl.Bool{Must: []dsl.Clause{active}},
			wantSQL:    `("status" = ?)`,
			wantParams: []any{"active"},
		},
		{
			name:       "must and filter merge",
			clause:     dsl.Bool{Must: []dsl.Clause{active}, Filter: []dsl.Clause{adult}},
			wantSQL:    `("status" = ? AND "age" >= ?)`,
			wantParams: []any{"active", int64(18)},
		},
		{
			name:       "should ignored when must present",
			clause:     dsl.Bool{Must: []dsl.Clause{active}, Should: []dsl.Clause{named, adult}},
			wantSQL:    `("status" = ?)`,
			wantParams: []any{"active"},
		},
		{
			name:       "should only is OR",
			clause:     dsl.Bool{Should: []dsl.Clause{active, adult}},
			wantSQL:    `("status" = ? OR "age" >= ?)`,
			wantParams: []any{"active", int64(18)},
		},
		{
			name:       "must_not only",
			clause:     dsl.Bool{MustNot: []dsl.Clause{active}},
			wantSQL:    `NOT ("status" = ?)`,
			wantParams: []any{"active"},
		},
		{
			name:       "must_not children are separate conjuncts",
			clause:     dsl.Bool{Filter: []dsl.Clause{named}, MustNot: []dsl.Clause{active, adult}},
			wantSQL:    `(("name" IS NOT NULL) AND NOT ("status" = ?) AND NOT ("age" >= ?))`,
			wantParams: []any{"active", int64(18)},
		},
		{
			name: "empty terms in must matches nothing",
			clause: dsl.Bool{Must: []dsl.Clause{
				active,
				dsl.Terms{Field: "role"},
			}},
			wantSQL:    `("status" = ? AND 1=0)`,
			wantParams: []any{"active"},
		},
		{
			name: "nested",
			clause: dsl.Bool{Must: []dsl.Clause{
				dsl.Bool{Should: []dsl.Clause{active, named}},
			}},
			wantSQL:    `(("status" = ? OR "name" IS NOT NULL))`,
			wantParams: []any{"active"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frag, err := c.CompileClause(tt.clause)
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, frag.SQL)
			if tt.wantParams == nil {
				assert.Empty(t, frag.Params)
			} else {
				assert.Equal(t, tt.wantParams, frag.Params)
			}
		})
	}
}

func TestCompileBool_PointerForm(t *testing.T) {
	c := NewCompiler(WithLogger(zerolog.Nop()))

	frag, err := c.CompileClause(&dsl.Bool{Should: []dsl.Clause{dsl.Exists{Field: "email"}}})
	require.NoError(t, err)
	assert.Equal(t, `("email" IS NOT NULL)`, frag.SQL)
}

func TestCompileBool_DiscardedShouldStillValidated(t *testing.T) {
	c := NewCompiler(WithLogger(zerolog.Nop()))

	_, err := c.CompileClause(dsl.Bool{
		Must:   []dsl.Clause{dsl.Term{Field: "status", Value: "active"}},
		Should: []dsl.Clause{dsl.Term{Field: "bad-name", Value: 1}},
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}
