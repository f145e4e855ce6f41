package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/docql/internal/store"
)

// TableInfo is the JSON payload of table create and table describe.
type TableInfo struct {
	Table   string         `json:"table"`
	Columns []store.Column `json:"columns"`
}

// NewTableCommand creates the table command group.
func NewTableCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Manage tables",
	}

	cmd.AddCommand(newTableCreateCommand(rootOpts))
	cmd.AddCommand(newTableDropCommand(rootOpts))
	cmd.AddCommand(newTableListCommand(rootOpts))
	cmd.AddCommand(newTableDescribeCommand(rootOpts))

	return cmd
}

func newTableCreateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "create <table> <column:type>...",
		Short: "Create a table",
		Long: `Create a table if it does not exist. Types are TEXT, INTEGER, REAL,
BLOB, NUMERIC or JSON (stored as TEXT). A column without a type is TEXT.
An "id TEXT PRIMARY KEY" column is added unless id is declared.

Example:
  docql table create users name:text age:integer status profile:json`,
		Args:          cobra.MinimumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(rootOpts, cmd)
			columns := parseColumns(args[1:])

			cfg, err := loadConfig(rootOpts, cmd, out)
			if err != nil {
				return err
			}
			st, err := openStore(cfg, out)
			if err != nil {
				return err
			}
			defer closeStore(st)

			if err := st.CreateTable(commandContext(cmd), args[0], columns); err != nil {
				return out.Fail("failed to create table", err)
			}

			if out.Format == "json" {
				return out.Success(TableInfo{Table: args[0], Columns: columns})
			}
			fmt.Fprintf(out.Writer, "✓ Created table %s\n", args[0])
			return nil
		},
	}
}

func newTableDropCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "drop <table>",
		Short:         "Drop a table",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(rootOpts, cmd)

			cfg, err := loadConfig(rootOpts, cmd, out)
			if err != nil {
				return err
			}
			st, err := openStore(cfg, out)
			if err != nil {
				return err
			}
			defer closeStore(st)

			if err := st.DropTable(commandContext(cmd), args[0]); err != nil {
				return out.Fail("failed to drop table", err)
			}

			if out.Format == "json" {
				return out.Success(map[string]string{"table": args[0]})
			}
			fmt.Fprintf(out.Writer, "✓ Dropped table %s\n", args[0])
			return nil
		},
	}
}

func newTableListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List tables",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(rootOpts, cmd)

			cfg, err := loadConfig(rootOpts, cmd, out)
			if err != nil {
				return err
			}
			st, err := openStore(cfg, out)
			if err != nil {
				return err
			}
			defer closeStore(st)

			tables, err := st.Tables(commandContext(cmd))
			if err != nil {
				return out.Fail("failed to list tables", err)
			}

			if out.Format == "json" {
				return out.Success(map[string][]string{"tables": tables})
			}
			for _, t := range tables {
				fmt.Fprintln(out.Writer, t)
			}
			return nil
		},
	}
}

func newTableDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "describe <table>",
		Short:         "Show the columns of a table",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(rootOpts, cmd)

			cfg, err := loadConfig(rootOpts, cmd, out)
			if err != nil {
				return err
			}
			st, err := openStore(cfg, out)
			if err != nil {
				return err
			}
			defer closeStore(st)

			columns, err := st.TableColumns(commandContext(cmd), args[0])
			if err != nil {
				return out.Fail("failed to describe table", err)
			}

			if out.Format == "json" {
				return out.Success(TableInfo{Table: args[0], Columns: columns})
			}
			for _, c := range columns {
				fmt.Fprintf(out.Writer, "%-20s %s\n", c.Name, c.Type)
			}
			return nil
		},
	}
}

// parseColumns turns "name:type" arguments into columns. A bare name is TEXT.
func parseColumns(args []string) []store.Column {
	columns := make([]store.Column, 0, len(args))
	for _, arg := range args {
		name, typ, ok := strings.Cut(arg, ":")
		if !ok || typ == "" {
			typ = "TEXT"
		}
		columns = append(columns, store.Column{Name: name, Type: strings.ToUpper(typ)})
	}
	return columns
}

// IndexOptions holds flags for index create.
type IndexOptions struct {
	*RootOptions
	Unique bool
}

// NewIndexCommand creates the index command group.
func NewIndexCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage indexes",
	}
	cmd.AddCommand(newIndexCreateCommand(rootOpts))
	return cmd
}

func newIndexCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &IndexOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create <table> <index> <column>...",
		Short: "Create an index",
		Long: `Create an index on one or more columns if it does not exist.

Example:
  docql index create users users_status status
  docql index create --unique users users_email email`,
		Args:          cobra.MinimumNArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := newFormatter(opts.RootOptions, cmd)

			cfg, err := loadConfig(opts.RootOptions, cmd, out)
			if err != nil {
				return err
			}
			st, err := openStore(cfg, out)
			if err != nil {
				return err
			}
			defer closeStore(st)

			if err := st.CreateIndex(commandContext(cmd), args[0], args[1], args[2:], opts.Unique); err != nil {
				return out.Fail("failed to create index", err)
			}

			if out.Format == "json" {
				return out.Success(map[string]any{
					"table":   args[0],
					"index":   args[1],
					"columns": args[2:],
					"unique":  opts.Unique,
				})
			}
			fmt.Fprintf(out.Writer, "✓ Created index %s on %s\n", args[1], args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Unique, "unique", false, "create a unique index")

	return cmd
}
