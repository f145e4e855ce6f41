package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/docql/internal/canon"
	"github.com/roach88/docql/internal/dsl"
	"github.com/roach88/docql/internal/search"
	"github.com/roach88/docql/internal/sqlgen"
)

// ExplainOptions holds flags for the explain command.
type ExplainOptions struct {
	*RootOptions
	Aggregate bool
}

// Explanation is the JSON payload of explain.
type Explanation struct {
	Kind        string `json:"kind"`
	SQL         string `json:"sql"`
	Params      []any  `json:"params"`
	Fingerprint string `json:"fingerprint"`
}

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExplainOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "explain <table> <request-file>",
		Short: "Print the SQL a request compiles to",
		Long: `Compile a request without running it and print the SQL, the bound
parameters and the statement fingerprint. No database is opened.

Example:
  docql explain users request.json
  docql explain --aggregate users by-status.yaml`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplain(opts, cmd, args[0], args[1])
		},
	}

	cmd.Flags().BoolVar(&opts.Aggregate, "aggregate", false, "compile as an aggregation")

	return cmd
}

func runExplain(opts *ExplainOptions, cmd *cobra.Command, table, requestFile string) error {
	out := newFormatter(opts.RootOptions, cmd)

	req, err := dsl.DecodeFile(requestFile)
	if err != nil {
		return out.Fail("failed to read request", err)
	}

	cfg, err := loadConfig(opts.RootOptions, cmd, out)
	if err != nil {
		return err
	}

	kind := search.KindSearch
	if opts.Aggregate {
		kind = search.KindAggregate
	}

	// Explain never executes, so the service gets no executor.
	st, err := newService(cfg, nil).Explain(table, req, kind)
	if err != nil {
		return out.Fail("compile failed", err)
	}

	exp, err := explain(kind, st)
	if err != nil {
		return out.Fail("failed to fingerprint statement", err)
	}

	if out.Format == "json" {
		return out.Success(exp)
	}

	params, err := canon.Marshal(exp.Params)
	if err != nil {
		return out.Fail("failed to encode params", err)
	}
	fmt.Fprintf(out.Writer, "SQL:         %s\n", exp.SQL)
	fmt.Fprintf(out.Writer, "Params:      %s\n", params)
	fmt.Fprintf(out.Writer, "Fingerprint: %s\n", exp.Fingerprint)
	return nil
}

func explain(kind search.Kind, st sqlgen.Statement) (Explanation, error) {
	fp, err := canon.Fingerprint(st)
	if err != nil {
		return Explanation{}, err
	}
	params := st.Params
	if params == nil {
		params = []any{}
	}
	return Explanation{Kind: kind.String(), SQL: st.SQL, Params: params, Fingerprint: fp}, nil
}
