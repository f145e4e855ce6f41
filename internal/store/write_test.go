package store

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/docql/internal/ident"
)

func TestInsert_GeneratesUUIDv7(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createUsersTable(t, s)

	id, err := s.Insert(ctx, "users", Record{"name": "alice", "age": int64(30)})
	require.NoError(t, err)

	parsed, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())

	rows, err := s.Execute(ctx, `SELECT * FROM "users" WHERE "id" = ?`, []any{id})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0].Value("name"))
	assert.Equal(t, int64(30), rows[0].Value("age"))
}

func TestInsert_KeepsSuppliedID(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createUsersTable(t, s)

	id, err := s.Insert(ctx, "users", Record{"id": "u1", "name": "alice"})
	require.NoError(t, err)
	assert.Equal(t, "u1", id)

	_, err = s.Insert(ctx, "users", Record{"id": "u1", "name": "again"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)

	var execErr *ExecError
	require.True(t, errors.As(err, &execErr))
	assert.Contains(t, execErr.SQL, `INSERT INTO "users"`)
}

func TestInsert_DoesNotMutateRecord(t *testing.T) {
	s := createTestStore(t)
	createUsersTable(t, s)

	rec := Record{"name": "bob"}
	_, err := s.Insert(context.Background(), "users", rec)
	require.NoError(t, err)
	_, hasID := rec["id"]
	assert.False(t, hasID)
}

func TestInsert_JSONValuesStoredAsText(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createUsersTable(t, s)

	_, err := s.Insert(ctx, "users", Record{
		"id":      "u1",
		"profile": map[string]any{"city": "Oslo", "tags": []any{"a", "b"}},
	})
	require.NoError(t, err)

	rows, err := s.Execute(ctx, `SELECT "profile" ->> '$.city' AS "city", "profile" FROM "users"`, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Oslo", rows[0].Value("city"))
	assert.JSONEq(t, `{"city":"Oslo","tags":["a","b"]}`, rows[0].Value("profile").(string))
}

func TestInsert_Rejects(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createUsersTable(t, s)

	_, err := s.Insert(ctx, "users-x", Record{"name": "a"})
	assert.True(t, ident.IsIdentifierError(err))

	_, err = s.Insert(ctx, "users", Record{"na me": "a"})
	assert.True(t, ident.IsIdentifierError(err))

	_, err = s.Insert(ctx, "users", Record{"name": struct{}{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported value type")

	_, err = s.Insert(ctx, "users", Record{"id": []any{1}})
	require.Error(t, err)

	_, err = s.Insert(ctx, "users", Record{"unknown_col": "x"})
	require.Error(t, err)
	assert.True(t, IsExecError(err))
}

func TestUpdate(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createUsersTable(t, s)

	id, err := s.Insert(ctx, "users", Record{"name": "alice", "status": "active"})
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, "users", id, Record{"status": "inactive", "id": "ignored"}))

	rows, err := s.Execute(ctx, `SELECT "id", "status" FROM "users"`, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, id, rows[0].Value("id"))
	assert.Equal(t, "inactive", rows[0].Value("status"))

	assert.ErrorIs(t, s.Update(ctx, "users", "missing", Record{"status": "x"}), ErrNotFound)
	assert.Error(t, s.Update(ctx, "users", id, Record{}))
}

func TestDelete(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createUsersTable(t, s)

	id, err := s.Insert(ctx, "users", Record{"name": "alice"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, "users", id))
	assert.ErrorIs(t, s.Delete(ctx, "users", id), ErrNotFound)
}

func TestWithTx_CommitAndRollback(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	createUsersTable(t, s)

	err := s.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.Insert(ctx, "users", Record{"id": "a", "name": "alice"}); err != nil {
			return err
		}
		return tx.Update(ctx, "users", "a", Record{"status": "active"})
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.WithTx(ctx, func(tx *Tx) error {
		if _, err := tx.Insert(ctx, "users", Record{"id": "b", "name": "bob"}); err != nil {
			return err
		}
		if err := tx.Delete(ctx, "users", "a"); err != nil {
			return err
		}
		rows, err := tx.Execute(ctx, `SELECT "id" FROM "users" ORDER BY "id"`, nil)
		if err != nil {
			return err
		}
		require.Len(t, rows, 1)
		assert.Equal(t, "b", rows[0].Value("id"))
		return boom
	})
	require.ErrorIs(t, err, boom)

	rows, err := s.Execute(ctx, `SELECT "id", "status" FROM "users" ORDER BY "id"`, nil)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "a", rows[0].Value("id"))
	assert.Equal(t, "active", rows[0].Value("status"))
}
