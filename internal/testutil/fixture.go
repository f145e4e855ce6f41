package testutil

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/docql/internal/store"
)

//go:embed fixtures/users.yaml
var usersFixture []byte

// Fixture is a table definition plus the rows to load into it.
type Fixture struct {
	Table   string           `yaml:"table"`
	Columns []FixtureColumn  `yaml:"columns"`
	Rows    []map[string]any `yaml:"rows"`
}

// FixtureColumn is one column of a Fixture table.
type FixtureColumn struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// ParseFixture decodes a YAML fixture document.
func ParseFixture(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if f.Table == "" {
		return nil, fmt.Errorf("parse fixture: table is required")
	}
	return &f, nil
}

// LoadFixture reads and decodes a YAML fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(data)
}

// Apply creates the fixture table and inserts its rows in order, in one
// transaction. It returns the ids of the inserted rows.
func (f *Fixture) Apply(ctx context.Context, st *store.Store) ([]string, error) {
	cols := make([]store.Column, len(f.Columns))
	for i, c := range f.Columns {
		cols[i] = store.Column{Name: c.Name, Type: c.Type}
	}
	if err := st.CreateTable(ctx, f.Table, cols); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(f.Rows))
	err := st.WithTx(ctx, func(tx *store.Tx) error {
		for i, row := range f.Rows {
			id, err := tx.Insert(ctx, f.Table, store.Record(row))
			if err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("apply fixture %s: %w", f.Table, err)
	}
	return ids, nil
}
