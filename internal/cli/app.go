package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/docql/internal/config"
	"github.com/roach88/docql/internal/logging"
	"github.com/roach88/docql/internal/search"
	"github.com/roach88/docql/internal/sqlgen"
	"github.com/roach88/docql/internal/store"
)

// newFormatter builds the formatter for cmd from the global flags.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// loadConfig loads configuration, applies flag overrides and configures
// the global logger to write to the command's stderr.
func loadConfig(opts *RootOptions, cmd *cobra.Command, out *OutputFormatter) (*config.Config, error) {
	cfg, err := config.Load(config.Options{ConfigPath: opts.ConfigPath})
	if err != nil {
		return nil, out.FailWith(ErrCodeConfig, ExitCommandError, "failed to load configuration", err)
	}
	if opts.Database != "" {
		cfg.Database.Path = opts.Database
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	logging.Init(cfg.Log.Logging(cmd.ErrOrStderr()))
	return cfg, nil
}

// openStore opens the configured database.
func openStore(cfg *config.Config, out *OutputFormatter) (*store.Store, error) {
	out.VerboseLog("Opening database %s", cfg.Database.Path)
	st, err := store.Open(cfg.Database.Path, store.WithBusyTimeout(cfg.Database.BusyTimeout))
	if err != nil {
		return nil, out.FailWith(ErrCodeExecution, ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// newService builds a search service over exec using the configured
// defaults.
func newService(cfg *config.Config, exec search.Executor) *search.Service {
	opts := []search.Option{search.WithDefaultSize(cfg.Search.DefaultSize)}
	if cfg.Search.LenientReads {
		opts = append(opts, search.WithLenientReads())
	}
	return search.NewService(exec, sqlgen.NewCompiler(), opts...)
}

// closeStore closes st, logging rather than returning the error.
func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		logging.Error().Err(err).Msg("error closing database")
	}
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
