// Package store is the SQLite execution backend.
//
// It owns the single database handle and exposes two surfaces:
//
//   - Execute runs a compiled, parameterized statement and returns ordered
//     rows. This is what the search service reads through.
//   - A thin DDL/write surface (CreateTable, CreateIndex, DropTable, Insert,
//     Update, Delete, WithTx) for managing the tables that are searched.
//
// Every table, column and index name is checked by the ident package before
// it is interpolated into SQL. Values are always bound as parameters.
//
// # Connection model
//
// SQLite allows one writer at a time, so the pool is capped at one open
// connection. The database runs in WAL mode with a busy timeout, which lets
// concurrent callers queue rather than fail with SQLITE_BUSY.
package store
