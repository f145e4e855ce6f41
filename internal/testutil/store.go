// Package testutil provides shared test fixtures: throwaway stores, the
// users table most search tests run against, and deterministic id
// generation.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/roach88/docql/internal/store"
)

// OpenStore opens a store in a fresh temp directory and closes it when the
// test ends. Generated ids come from a SequentialIDs("row") generator.
func OpenStore(t testing.TB, opts ...store.Option) *store.Store {
	t.Helper()

	all := append([]store.Option{
		store.WithLogger(zerolog.Nop()),
		store.WithIDGenerator(NewSequentialIDs("row")),
	}, opts...)

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), all...)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// UsersFixture returns the users fixture: Alice (30, active), Bob (45,
// active) and Charlie (28, inactive) with ids "1", "2" and "3".
func UsersFixture(t testing.TB) *Fixture {
	t.Helper()
	f, err := ParseFixture(usersFixture)
	require.NoError(t, err)
	return f
}

// SeedUsers creates and fills the users table.
func SeedUsers(t testing.TB, st *store.Store) {
	t.Helper()
	_, err := UsersFixture(t).Apply(context.Background(), st)
	require.NoError(t, err)
}
