package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// createTestStore opens a fresh database in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, WithLogger(zerolog.Nop()))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createUsersTable creates the users table most tests search.
func createUsersTable(t *testing.T, s *Store) {
	t.Helper()
	err := s.CreateTable(context.Background(), "users", []Column{
		{Name: "name", Type: "TEXT"},
		{Name: "age", Type: "INTEGER"},
		{Name: "status", Type: "TEXT"},
		{Name: "profile", Type: "JSON"},
	})
	require.NoError(t, err)
}
