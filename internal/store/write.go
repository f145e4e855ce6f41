package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/roach88/docql/internal/ident"
)

// Record is one row to write, keyed by column name.
type Record map[string]any

// Insert writes rec into table and returns its id. When rec has no id
// (or an empty one) the store's IDGenerator assigns one (UUIDv7 by default).
func (s *Store) Insert(ctx context.Context, table string, rec Record) (string, error) {
	return insert(ctx, s.db, s.ids, table, rec)
}

// Insert writes rec into table inside the transaction.
func (t *Tx) Insert(ctx context.Context, table string, rec Record) (string, error) {
	return insert(ctx, t.tx, t.ids, table, rec)
}

// Update sets the columns in rec on the row with the given id.
// ErrNotFound is returned when no row has that id.
func (s *Store) Update(ctx context.Context, table, id string, rec Record) error {
	return update(ctx, s.db, table, id, rec)
}

// Update sets the columns in rec inside the transaction.
func (t *Tx) Update(ctx context.Context, table, id string, rec Record) error {
	return update(ctx, t.tx, table, id, rec)
}

// Delete removes the row with the given id.
// ErrNotFound is returned when no row has that id.
func (s *Store) Delete(ctx context.Context, table, id string) error {
	return deleteRow(ctx, s.db, table, id)
}

// Delete removes the row with the given id inside the transaction.
func (t *Tx) Delete(ctx context.Context, table, id string) error {
	return deleteRow(ctx, t.tx, table, id)
}

func insert(ctx context.Context, ex sqlx.ExecerContext, ids IDGenerator, table string, rec Record) (string, error) {
	if err := ident.Validate(table, ident.LabelTable); err != nil {
		return "", fmt.Errorf("insert: %w", err)
	}

	row := make(Record, len(rec)+1)
	for k, v := range rec {
		row[k] = v
	}
	id, err := recordID(row[IDColumn], ids)
	if err != nil {
		return "", fmt.Errorf("insert: %w", err)
	}
	row[IDColumn] = id

	cols, args, err := bindColumns(row)
	if err != nil {
		return "", fmt.Errorf("insert: %w", err)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		ident.Quote(table),
		strings.Join(cols, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))
	if _, err := ex.ExecContext(ctx, query, args...); err != nil {
		return "", execError(query, err)
	}
	return id, nil
}

func update(ctx context.Context, ex sqlx.ExecerContext, table, id string, rec Record) error {
	if err := ident.Validate(table, ident.LabelTable); err != nil {
		return fmt.Errorf("update: %w", err)
	}

	row := make(Record, len(rec))
	for k, v := range rec {
		if k != IDColumn {
			row[k] = v
		}
	}
	if len(row) == 0 {
		return fmt.Errorf("update: %w: no columns to set", ErrInvalidSchema)
	}

	cols, args, err := bindColumns(row)
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	sets := make([]string, len(cols))
	for i, col := range cols {
		sets[i] = col + " = ?"
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		ident.Quote(table), strings.Join(sets, ", "), ident.Quote(IDColumn))
	res, err := ex.ExecContext(ctx, query, append(args, id)...)
	if err != nil {
		return execError(query, err)
	}
	return requireAffected(res.RowsAffected())
}

func deleteRow(ctx context.Context, ex sqlx.ExecerContext, table, id string) error {
	if err := ident.Validate(table, ident.LabelTable); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", ident.Quote(table), ident.Quote(IDColumn))
	res, err := ex.ExecContext(ctx, query, id)
	if err != nil {
		return execError(query, err)
	}
	return requireAffected(res.RowsAffected())
}

func requireAffected(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// IDGenerator assigns ids to inserted records that do not carry one.
type IDGenerator interface {
	NewID() (string, error)
}

// UUIDv7 generates time-ordered UUIDs, so generated ids sort by creation.
type UUIDv7 struct{}

// NewID returns a new UUIDv7 string.
func (UUIDv7) NewID() (string, error) {
	u, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return u.String(), nil
}

func recordID(v any, ids IDGenerator) (string, error) {
	switch id := v.(type) {
	case nil:
	case string:
		if id != "" {
			return id, nil
		}
	case int, int64, float64:
		return fmt.Sprint(id), nil
	default:
		return "", fmt.Errorf("id must be a string or number, got %T", v)
	}
	return ids.NewID()
}

// bindColumns validates and quotes the record's column names in sorted
// order and returns the matching bind values.
func bindColumns(rec Record) ([]string, []any, error) {
	names := make([]string, 0, len(rec))
	for k := range rec {
		names = append(names, k)
	}
	sort.Strings(names)

	cols := make([]string, len(names))
	args := make([]any, len(names))
	for i, name := range names {
		if err := ident.Validate(name, ident.LabelColumn); err != nil {
			return nil, nil, err
		}
		v, err := bindValue(rec[name])
		if err != nil {
			return nil, nil, fmt.Errorf("column %q: %w", name, err)
		}
		cols[i] = ident.Quote(name)
		args[i] = v
	}
	return cols, args, nil
}

// bindValue converts v to something the driver can bind. Objects and
// arrays are stored as JSON text.
func bindValue(v any) (any, error) {
	switch val := v.(type) {
	case nil, string, []byte, bool, int, int32, int64, float32, float64:
		return val, nil
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano), nil
	case map[string]any, []any:
		data, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		return string(data), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
}
