package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Etherea7/bible-study-scribby-sub000/internal/exporters"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/studies"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/tasks"
	"github.com/Etherea7/bible-study-scribby-sub000/internal/transfer"
)

// GenerateCommand generates a study for one passage.
type GenerateCommand struct {
	Book       string
	Chapter    int
	StartVerse int
	EndVerse   int
	Provider   string
	Force      bool
	Save       bool
}

func newGenerateCommand(rt *runtime) *cobra.Command {
	opts := &GenerateCommand{}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a study for a passage",
		Long: `Generate a study for a passage and print it as JSON.

Examples:
  scribby generate --book John --chapter 1 --start 1 --end 18
  scribby generate --book Ruth --chapter 1 --provider gemini --save`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			res, err := app.Studies.Generate(cmd.Context(), studies.GenerateRequest{
				Book:       opts.Book,
				Chapter:    opts.Chapter,
				StartVerse: opts.StartVerse,
				EndVerse:   opts.EndVerse,
				Provider:   opts.Provider,
				Force:      opts.Force,
			})
			if err != nil {
				return err
			}
			if opts.Save {
				saved, err := app.Studies.NewStudy(res)
				if err != nil {
					return fmt.Errorf("failed to save study: %w", err)
				}
				rt.log.Info("study saved", zap.String("id", saved.ID))
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&opts.Book, "book", "", "book name or abbreviation (required)")
	cmd.Flags().IntVar(&opts.Chapter, "chapter", 0, "chapter number (required)")
	cmd.Flags().IntVar(&opts.StartVerse, "start", 0, "first verse, 0 for the whole chapter")
	cmd.Flags().IntVar(&opts.EndVerse, "end", 0, "last verse, 0 for the end of the chapter")
	cmd.Flags().StringVar(&opts.Provider, "provider", "", "LLM provider (groq, openrouter, gemini, claude)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "ignore the cached study")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "also save an editable copy")
	_ = cmd.MarkFlagRequired("book")
	_ = cmd.MarkFlagRequired("chapter")
	return cmd
}

func newExportCommand(rt *runtime) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export history and saved studies as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			doc, err := app.Transfer.Export()
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				return printJSON(cmd.OutOrStdout(), doc)
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			defer f.Close()
			if err := printJSON(f, doc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d history items and %d studies to %s\n", len(doc.History), len(doc.SavedStudies), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "output file (default: stdout)")
	return cmd
}

func newImportCommand(rt *runtime) *cobra.Command {
	var (
		file   string
		strict bool
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import an export document",
		Long: `Import history and saved studies from an export document.

Lenient mode (default) repairs missing envelope fields and skips invalid
records. Strict mode rejects the whole document if anything is invalid.
Records whose id is already stored are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}

			app, err := rt.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			mode := transfer.ModeLenient
			if strict {
				mode = transfer.ModeStrict
			}
			report, importErr := app.Transfer.Import(data, mode)
			if err := printJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			return importErr
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "export document to import (required)")
	cmd.Flags().BoolVar(&strict, "strict", false, "reject the whole document on any invalid record")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newHistoryCommand(rt *runtime) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently generated studies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return errors.New("--limit must not be negative")
			}
			app, err := rt.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			items, err := app.History.List(limit)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(w, "No history yet.")
				return nil
			}
			for _, item := range items {
				fmt.Fprintf(w, "%s  %-24s %s\n", item.CreatedAt.Local().Format("2006-01-02 15:04"), item.Reference, item.Provider)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries, 0 for all")
	return cmd
}

func newProvidersCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "Show which LLM providers are configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := rt.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			return printJSON(cmd.OutOrStdout(), map[string]any{
				"mode":      app.Providers.Mode(),
				"providers": app.Providers.Status(),
			})
		},
	}
}

func newPruneCacheCommand(rt *runtime) *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune-cache",
		Short: "Delete cached passages and studies older than the cache TTL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ttl := rt.cfg.Cache.TTL
			if cmd.Flags().Changed("older-than") {
				ttl = olderThan
			}
			if ttl <= 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Cache TTL is disabled, nothing to prune. Use --older-than to prune anyway.")
				return nil
			}

			app, err := rt.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			res, err := tasks.PruneCache(app.Cache, ttl, time.Now().UTC())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d passages and %d studies\n", res.Passages, res.Studies)
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "override CACHE_TTL, e.g. 720h")
	return cmd
}

func newMarkdownCommand(rt *runtime) *cobra.Command {
	var id, out string
	cmd := &cobra.Command{
		Use:   "markdown",
		Short: "Write saved studies as Markdown files",
		Long: `Write saved studies as Markdown files with YAML front matter.

Without --id every saved study is written.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := filepath.Abs(out)
			if err != nil {
				return err
			}
			app, err := rt.openApp()
			if err != nil {
				return err
			}
			defer app.Close()

			exporter := exporters.NewStoreMarkdownExporter(app.SavedStudies, dir, rt.log)
			var result exporters.ExportResult
			if id != "" {
				result, err = exporter.ExportByID(id)
			} else {
				result, err = exporter.ExportAll()
			}
			if err != nil {
				return err
			}
			for _, f := range result.Files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			if result.StudiesFailed > 0 {
				return fmt.Errorf("%d studies failed to export", result.StudiesFailed)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "saved study id (default: all studies)")
	cmd.Flags().StringVar(&out, "out", ".", "output directory")
	return cmd
}
