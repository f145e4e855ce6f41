package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cliEnv is a working directory holding a database and request files.
type cliEnv struct {
	t   *testing.T
	dir string
	db  string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return &cliEnv{t: t, dir: dir, db: filepath.Join(dir, "test.db")}
}

func (e *cliEnv) write(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(e.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes docql with --db set and returns stdout.
func (e *cliEnv) run(args ...string) (string, error) {
	e.t.Helper()
	cmd := NewRootCommand()
	stdout := &bytes.Buffer{}
	cmd.SetOut(stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--db", e.db}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func (e *cliEnv) runJSON(args ...string) (CLIResponse, error) {
	e.t.Helper()
	out, err := e.run(append([]string{"--format", "json"}, args...)...)
	var resp CLIResponse
	require.NoError(e.t, json.Unmarshal([]byte(out), &resp), "output: %s", out)
	return resp, err
}

const usersRecords = `[
  {"id": "1", "name": "Alice", "age": 30, "status": "active", "profile": {"city": "Oslo"}},
  {"id": "2", "name": "Bob", "age": 45, "status": "active", "profile": {"city": "Bergen"}},
  {"id": "3", "name": "Charlie", "age": 28, "status": "inactive"}
]`

// seed creates and fills the users table.
func (e *cliEnv) seed() {
	e.t.Helper()
	_, err := e.run("table", "create", "users", "name:text", "age:integer", "status", "profile:json")
	require.NoError(e.t, err)
	_, err = e.run("insert", "users", e.write("users.json", usersRecords))
	require.NoError(e.t, err)
}

func TestSearch_JSONOutput(t *testing.T) {
	env := newCLIEnv(t)
	env.seed()

	req := env.write("active.json", `{
  "query": {"bool": {"must": [{"term": {"status": "active"}}]}},
  "sort": [{"age": "desc"}],
  "_source": ["name", "age"]
}`)

	resp, err := env.runJSON("search", "users", req)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)

	data := resp.Data.(map[string]any)
	assert.Equal(t, "users", data["table"])
	assert.Equal(t, float64(2), data["count"])
	rows := data["rows"].([]any)
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]any{"name": "Bob", "age": float64(45)}, rows[0])
	assert.Equal(t, map[string]any{"name": "Alice", "age": float64(30)}, rows[1])
}

func TestSearch_TextOutputIsOneRowPerLine(t *testing.T) {
	env := newCLIEnv(t)
	env.seed()

	req := env.write("req.yaml", `
query:
  range:
    age:
      gte: 30
sort:
  - age: asc
_source: [name]
`)

	out, err := env.run("search", "users", req)
	require.NoError(t, err)
	assert.Equal(t, "{\"name\":\"Alice\"}\n{\"name\":\"Bob\"}\n", out)
}

func TestSearch_JSONPathField(t *testing.T) {
	env := newCLIEnv(t)
	env.seed()

	req := env.write("city.json", `{"query": {"term": {"profile->>city": "Bergen"}}, "_source": ["name"]}`)

	resp, err := env.runJSON("search", "users", req)
	require.NoError(t, err)
	rows := resp.Data.(map[string]any)["rows"].([]any)
	require.Len(t, rows, 1)
	assert.Equal(t, "Bob", rows[0].(map[string]any)["name"])
}

func TestAggregate_GroupsByStatus(t *testing.T) {
	env := newCLIEnv(t)
	env.seed()

	req := env.write("by-status.json", `{
  "aggs": {"group_by": ["status"], "metrics": {"n": {"count": "*"}, "oldest": {"max": "age"}}},
  "sort": [{"status": "asc"}]
}`)

	resp, err := env.runJSON("aggregate", "users", req)
	require.NoError(t, err)
	rows := resp.Data.(map[string]any)["rows"].([]any)
	require.Len(t, rows, 2)
	assert.Equal(t, map[string]any{"status": "active", "n": float64(2), "oldest": float64(45)}, rows[0])
	assert.Equal(t, map[string]any{"status": "inactive", "n": float64(1), "oldest": float64(28)}, rows[1])
}

func TestSearch_InvalidTableNameExitsOne(t *testing.T) {
	env := newCLIEnv(t)
	req := env.write("all.json", `{}`)

	resp, err := env.runJSON("search", "users;drop", req)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
}

func TestSearch_MissingTableIsExecutionError(t *testing.T) {
	env := newCLIEnv(t)
	req := env.write("all.json", `{}`)

	resp, err := env.runJSON("search", "missing", req)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeExecution, resp.Error.Code)
	assert.Contains(t, resp.Error.Details, "sql")
}

func TestSearch_LenientReadsFromConfig(t *testing.T) {
	env := newCLIEnv(t)
	env.write("docql.yaml", "search:\n  lenient_reads: true\n")
	req := env.write("all.json", `{}`)

	resp, err := env.runJSON("search", "missing", req)
	require.NoError(t, err)
	assert.Equal(t, float64(0), resp.Data.(map[string]any)["count"])
}

func TestSearch_MalformedRequestExitsTwo(t *testing.T) {
	env := newCLIEnv(t)
	req := env.write("bad.json", `{"query": [1, 2]}`)

	resp, err := env.runJSON("search", "users", req)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Equal(t, ErrCodeDecode, resp.Error.Code)
}

func TestExplain_PrintsSQLAndParams(t *testing.T) {
	env := newCLIEnv(t)
	req := env.write("req.json", `{"query": {"term": {"status": "active"}}, "size": 5}`)

	resp, err := env.runJSON("explain", "users", req)
	require.NoError(t, err)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "search", data["kind"])
	assert.Equal(t, `SELECT * FROM "users" WHERE "status" = ? LIMIT ? OFFSET ?`, data["sql"])
	assert.Equal(t, []any{"active", float64(5), float64(0)}, data["params"])
	assert.Len(t, data["fingerprint"], 64)
}

func TestExplain_FingerprintIsStable(t *testing.T) {
	env := newCLIEnv(t)
	a := env.write("a.json", `{"query": {"term": {"status": "active"}}}`)
	b := env.write("b.yaml", "query:\n  term:\n    status: active\n")

	respA, err := env.runJSON("explain", "users", a)
	require.NoError(t, err)
	respB, err := env.runJSON("explain", "users", b)
	require.NoError(t, err)

	assert.Equal(t,
		respA.Data.(map[string]any)["fingerprint"],
		respB.Data.(map[string]any)["fingerprint"])
}

func TestExplain_Aggregate(t *testing.T) {
	env := newCLIEnv(t)
	req := env.write("req.json", `{"aggs": {"group_by": ["status"], "metrics": {"n": {"count": "*"}}}}`)

	out, err := env.run("explain", "--aggregate", "users", req)
	require.NoError(t, err)
	assert.Contains(t, out, `SQL:         SELECT "status", COUNT(*) AS "n" FROM "users" WHERE 1=1 GROUP BY "status"`)
	assert.Contains(t, out, "Params:      []")
	assert.Contains(t, out, "Fingerprint: ")
}

func TestLint_Clean(t *testing.T) {
	env := newCLIEnv(t)
	req := env.write("req.json", `{"query": {"term": {"status": "active"}}}`)

	out, err := env.run("lint", req)
	require.NoError(t, err)
	assert.Contains(t, out, "no warnings")
}

func TestLint_WarningsExitOne(t *testing.T) {
	env := newCLIEnv(t)
	req := env.write("req.json", `{"query": {"bool": {
  "must": [{"term": {"status": "active"}}],
  "should": [{"term": {"name": "Bob"}}]
}}}`)

	resp, err := env.runJSON("lint", req)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Equal(t, ErrCodeLint, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.Details)
}

func TestTable_CreateDescribeListDrop(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run("table", "create", "events", "kind", "payload:json")
	require.NoError(t, err)

	resp, err := env.runJSON("table", "describe", "events")
	require.NoError(t, err)
	cols := resp.Data.(map[string]any)["columns"].([]any)
	require.Len(t, cols, 3)

	out, err := env.run("table", "list")
	require.NoError(t, err)
	assert.Equal(t, "events\n", out)

	_, err = env.run("table", "drop", "events")
	require.NoError(t, err)

	out, err = env.run("table", "list")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestTable_CreateRejectsUnknownType(t *testing.T) {
	env := newCLIEnv(t)

	resp, err := env.runJSON("table", "create", "events", "kind:varchar")
	require.Error(t, err)
	assert.Equal(t, ErrCodeValidation, resp.Error.Code)
}

func TestIndex_CreateUniqueRejectsDuplicates(t *testing.T) {
	env := newCLIEnv(t)
	env.seed()

	_, err := env.run("index", "create", "--unique", "users", "users_name", "name")
	require.NoError(t, err)

	resp, err := env.runJSON("insert", "users", env.write("dup.json", `{"name": "Alice"}`))
	require.Error(t, err)
	assert.Equal(t, ErrCodeConflict, resp.Error.Code)
}

func TestInsert_IsAllOrNothing(t *testing.T) {
	env := newCLIEnv(t)
	env.seed()

	_, err := env.run("insert", "users", env.write("more.yaml", `
- id: "4"
  name: Dana
- id: "1"
  name: Alice again
`))
	require.Error(t, err)

	resp, err := env.runJSON("search", "users", env.write("all.json", `{"size": 100}`))
	require.NoError(t, err)
	assert.Equal(t, float64(3), resp.Data.(map[string]any)["count"])
}

func TestInsert_PrintsGeneratedIDs(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run("table", "create", "notes", "body")
	require.NoError(t, err)

	resp, err := env.runJSON("insert", "notes", env.write("note.json", `{"body": "hello"}`))
	require.NoError(t, err)
	ids := resp.Data.(map[string]any)["ids"].([]any)
	require.Len(t, ids, 1)
	assert.Len(t, ids[0], 36)
}

func TestRoot_InvalidFormat(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run("--format", "xml", "table", "list")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
