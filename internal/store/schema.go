package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/docql/internal/ident"
)

// Column declares one table column.
type Column struct {
	Name string `db:"name" json:"name"`
	Type string `db:"type" json:"type"`
}

// Column types accepted by CreateTable. JSON is stored as TEXT.
var columnTypes = map[string]string{
	"TEXT":    "TEXT",
	"INTEGER": "INTEGER",
	"REAL":    "REAL",
	"BLOB":    "BLOB",
	"NUMERIC": "NUMERIC",
	"JSON":    "TEXT",
}

// IDColumn is the primary key column every table carries.
const IDColumn = "id"

// CreateTable creates table if it does not exist. An "id TEXT PRIMARY KEY"
// column is added when columns does not declare id; a declared id becomes
// the primary key. Every name and type is validated before any SQL runs.
func (s *Store) CreateTable(ctx context.Context, table string, columns []Column) error {
	ddl, err := createTableSQL(table, columns)
	if err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return execError(ddl, err)
	}
	s.logger.Debug().Str("table", table).Int("columns", len(columns)).Msg("table created")
	return nil
}

func createTableSQL(table string, columns []Column) (string, error) {
	if err := ident.Validate(table, ident.LabelTable); err != nil {
		return "", err
	}

	seen := make(map[string]bool, len(columns))
	defs := make([]string, 0, len(columns)+1)
	hasID := false
	for _, col := range columns {
		if err := ident.Validate(col.Name, ident.LabelColumn); err != nil {
			return "", err
		}
		key := strings.ToLower(col.Name)
		if seen[key] {
			return "", fmt.Errorf("%w: duplicate column %q", ErrInvalidSchema, col.Name)
		}
		seen[key] = true

		sqlType, ok := columnTypes[strings.ToUpper(strings.TrimSpace(col.Type))]
		if !ok {
			return "", fmt.Errorf("%w: column %q: unsupported type %q", ErrInvalidSchema, col.Name, col.Type)
		}

		def := ident.Quote(col.Name) + " " + sqlType
		if key == IDColumn {
			hasID = true
			def += " PRIMARY KEY"
		}
		defs = append(defs, def)
	}
	if !hasID {
		defs = append([]string{ident.Quote(IDColumn) + " TEXT PRIMARY KEY"}, defs...)
	}

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", ident.Quote(table), strings.Join(defs, ", ")), nil
}

// DropTable drops table if it exists.
func (s *Store) DropTable(ctx context.Context, table string) error {
	if err := ident.Validate(table, ident.LabelTable); err != nil {
		return fmt.Errorf("drop table: %w", err)
	}
	ddl := "DROP TABLE IF EXISTS " + ident.Quote(table)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return execError(ddl, err)
	}
	s.logger.Debug().Str("table", table).Msg("table dropped")
	return nil
}

// CreateIndex creates an index named index on table over columns.
func (s *Store) CreateIndex(ctx context.Context, table, index string, columns []string, unique bool) error {
	if err := ident.Validate(table, ident.LabelTable); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if err := ident.Validate(index, ident.LabelIndex); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	if len(columns) == 0 {
		return fmt.Errorf("%w: index %q needs at least one column", ErrInvalidSchema, index)
	}
	quoted := make([]string, len(columns))
	for i, col := range columns {
		if err := ident.Validate(col, ident.LabelColumn); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
		quoted[i] = ident.Quote(col)
	}

	kind := "INDEX"
	if unique {
		kind = "UNIQUE INDEX"
	}
	ddl := fmt.Sprintf("CREATE %s IF NOT EXISTS %s ON %s (%s)",
		kind, ident.Quote(index), ident.Quote(table), strings.Join(quoted, ", "))
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return execError(ddl, err)
	}
	s.logger.Debug().Str("table", table).Str("index", index).Bool("unique", unique).Msg("index created")
	return nil
}

// Tables lists user tables in name order.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	const q = `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`
	names := make([]string, 0)
	if err := s.db.SelectContext(ctx, &names, q); err != nil {
		return nil, execError(q, err)
	}
	return names, nil
}

// TableColumns describes the columns of table in declaration order.
// A missing table yields ErrNotFound.
func (s *Store) TableColumns(ctx context.Context, table string) ([]Column, error) {
	if err := ident.Validate(table, ident.LabelTable); err != nil {
		return nil, fmt.Errorf("table columns: %w", err)
	}
	const q = `SELECT name, type FROM pragma_table_info(?) ORDER BY cid`
	var cols []Column
	if err := s.db.SelectContext(ctx, &cols, q, table); err != nil {
		return nil, execError(q, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %q: %w", table, ErrNotFound)
	}
	return cols, nil
}
