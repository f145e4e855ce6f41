package cli

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/roach88/docql/internal/dsl"
	"github.com/roach88/docql/internal/search"
	"github.com/roach88/docql/internal/store"
)

// SearchResult is the JSON payload of search and aggregate.
type SearchResult struct {
	Table string      `json:"table"`
	Count int         `json:"count"`
	Rows  []store.Row `json:"rows"`
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <table> <request-file>",
		Short: "Run a search request",
		Long: `Run a search request against a table and print the matching rows.

The request file may be JSON, YAML or CUE:

  {"query": {"bool": {"must": [{"term": {"status": "active"}}]}},
   "sort": [{"age": "desc"}], "size": 20}

Example:
  docql search users request.json
  docql --format json --db ./app.db search users request.yaml`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, cmd, args[0], args[1], search.KindSearch)
		},
	}
}

// NewAggregateCommand creates the aggregate command.
func NewAggregateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "aggregate <table> <request-file>",
		Short: "Run an aggregation request",
		Long: `Run an aggregation request and print one row per group.

  {"aggs": {"group_by": ["status"], "metrics": {"n": {"count": "*"}}}}

Example:
  docql aggregate users by-status.json`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, cmd, args[0], args[1], search.KindAggregate)
		},
	}
}

func runQuery(opts *RootOptions, cmd *cobra.Command, table, requestFile string, kind search.Kind) error {
	out := newFormatter(opts, cmd)

	req, err := dsl.DecodeFile(requestFile)
	if err != nil {
		return out.Fail("failed to read request", err)
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

	svc := newService(cfg, st)
	ctx := commandContext(cmd)

	var rows []store.Row
	if kind == search.KindAggregate {
		rows, err = svc.Aggregate(ctx, table, req)
	} else {
		rows, err = svc.Search(ctx, table, req)
	}
	if err != nil {
		return out.Fail(fmt.Sprintf("%s failed", kind), err)
	}

	out.VerboseLog("%d row(s)", len(rows))

	if out.Format == "json" {
		return out.Success(SearchResult{Table: table, Count: len(rows), Rows: rows})
	}

	// Text output is one JSON object per line.
	for _, row := range rows {
		line, err := json.Marshal(row)
		if err != nil {
			return out.Fail("failed to encode row", err)
		}
		fmt.Fprintln(out.Writer, string(line))
	}
	return nil
}
