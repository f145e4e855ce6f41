package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/docql/internal/dsl"
)

// NewLintCommand creates the lint command.
func NewLintCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "lint <request-file>",
		Short: "Report parts of a request that will be silently ignored",
		Long: `Report every permissive fallback a request relies on: unknown clause
types, ignored range operators, should clauses discarded next to must,
empty terms lists, unknown metric operators and unrecognized sort
directions.

Exits 1 when any warning is reported.

Example:
  docql lint request.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(rootOpts, cmd, args[0])
		},
	}
}

func runLint(opts *RootOptions, cmd *cobra.Command, requestFile string) error {
	out := newFormatter(opts, cmd)

	req, err := dsl.DecodeFile(requestFile)
	if err != nil {
		return out.Fail("failed to read request", err)
	}

	result := dsl.Lint(req)

	if out.Format == "json" {
		if result.Clean {
			return out.Success(result)
		}
		_ = out.Error(ErrCodeLint, fmt.Sprintf("%d warning(s)", len(result.Warnings)), result.Warnings)
		return NewExitError(ExitFailure, fmt.Sprintf("%s: lint found %d warning(s)", ErrCodeLint, len(result.Warnings)))
	}

	if result.Clean {
		fmt.Fprintf(out.Writer, "✓ %s: no warnings\n", requestFile)
		return nil
	}

	fmt.Fprintf(out.Writer, "✗ %s: %d warning(s)\n", requestFile, len(result.Warnings))
	for _, w := range result.Warnings {
		fmt.Fprintf(out.Writer, "  - %s\n", w)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%s: lint found %d warning(s)", ErrCodeLint, len(result.Warnings)))
}
