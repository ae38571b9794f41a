// Package cli implements the scribby command line. Every command except serve
// works directly against the local database, so the server does not need to
// be running.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/config"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/entrypoint"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/logging"
)

// runtime is shared by all commands once the root pre-run has loaded it.
type runtime struct {
	cfg *config.Config
	log *zap.Logger
}

// openApp builds the services over the configured database. Callers must
// Close the result.
func (rt *runtime) openApp() (*entrypoint.App, error) {
	return entrypoint.NewApp(rt.cfg, rt.log)
}

// NewRootCommand returns the scribby command tree. Running it without a
// subcommand starts the server.
func NewRootCommand(version string) *cobra.Command {
	rt := &runtime{}
	var dbPath string

	root := &cobra.Command{
		Use:   "scribby",
		Short: "Generate and edit inductive Bible studies",
		Long: `Scribby fetches ESV passages, asks an LLM for an inductive study
guide and keeps a local library of studies you can edit and export.

Configuration is read from the environment or a .env file in the working
directory (ESV_API_KEY, GROQ_API_KEY, OPENROUTER_API_KEY, GOOGLE_API_KEY,
ANTHROPIC_API_KEY, DATABASE_PATH, ...).

Examples:
  scribby                                   # Start the server
  scribby generate --book John --chapter 3  # Generate a study
  scribby export --out backup.json          # Export history and saved studies`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			rt.cfg = config.NewConfig()
			if dbPath != "" {
				rt.cfg.Database.Path = dbPath
			}
			log, err := logging.New(rt.cfg.Logging)
			if err != nil {
				return err
			}
			rt.log = log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if rt.log != nil {
				_ = rt.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&dbPath, "db", "", "path to the SQLite database (default: DATABASE_PATH)")

	serve := newServeCommand(rt, version)
	root.RunE = serve.RunE
	root.AddCommand(
		serve,
		newGenerateCommand(rt),
		newExportCommand(rt),
		newImportCommand(rt),
		newHistoryCommand(rt),
		newProvidersCommand(rt),
		newPruneCacheCommand(rt),
		newMarkdownCommand(rt),
	)
	return root
}

func newServeCommand(rt *runtime, version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return entrypoint.Run(rt.cfg, rt.log, version)
		},
	}
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
