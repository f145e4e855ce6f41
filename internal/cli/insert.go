package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/docql/internal/dsl"
	"github.com/roach88/docql/internal/store"
)

// InsertResult is the JSON payload of insert.
type InsertResult struct {
	Table string   `json:"table"`
	IDs   []string `json:"ids"`
}

// NewInsertCommand creates the insert command.
func NewInsertCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "insert <table> <record-file>",
		Short: "Insert records from a JSON or YAML file",
		Long: `Insert one record (an object) or many (an array of objects) into a
table. All records are written in one transaction. Records without an id
get a generated UUIDv7. Nested objects and arrays are stored as JSON text.

Example:
  docql insert users users.yaml`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInsert(rootOpts, cmd, args[0], args[1])
		},
	}
}

func runInsert(opts *RootOptions, cmd *cobra.Command, table, recordFile string) error {
	out := newFormatter(opts, cmd)

	records, err := readRecords(recordFile)
	if err != nil {
		return out.Fail("failed to read records", err)
	}

	cfg, err := loadConfig(opts, cmd, out)
	if err != nil {
		return err
	}
	st, err := openStore(cfg, out)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := commandContext(cmd)
	ids := make([]string, 0, len(records))
	err = st.WithTx(ctx, func(tx *store.Tx) error {
		for i, rec := range records {
			id, err := tx.Insert(ctx, table, rec)
			if err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return out.Fail("insert failed", err)
	}

	if out.Format == "json" {
		return out.Success(InsertResult{Table: table, IDs: ids})
	}
	for _, id := range ids {
		fmt.Fprintln(out.Writer, id)
	}
	out.VerboseLog("Inserted %d record(s) into %s", len(ids), table)
	return nil
}

// readRecords decodes a record file holding one object or an array of
// objects.
func readRecords(path string) ([]store.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read record file: %w", err)
	}

	var doc any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		doc, err = dsl.DecodeJSONDocument(data)
	case ".yaml", ".yml":
		doc, err = dsl.DecodeYAMLDocument(data)
	default:
		return nil, fmt.Errorf("unsupported record file extension %q (want .json, .yaml or .yml)", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	switch v := doc.(type) {
	case map[string]any:
		return []store.Record{v}, nil
	case []any:
		records := make([]store.Record, 0, len(v))
		for i, elem := range v {
			obj, ok := elem.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: record %d: expected an object, got %T", dsl.ErrMalformed, i, elem)
			}
			records = append(records, obj)
		}
		return records, nil
	default:
		return nil, fmt.Errorf("%w: expected an object or an array of objects, got %T", dsl.ErrMalformed, doc)
	}
}
