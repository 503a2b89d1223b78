package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/utility-bill-sync/cmd/api"
	"github.com/FACorreiaa/utility-bill-sync/internal/domain/electric"
	"github.com/FACorreiaa/utility-bill-sync/internal/domain/import/diagnostics"
	"github.com/FACorreiaa/utility-bill-sync/internal/domain/import/extractor"
	importhandler "github.com/FACorreiaa/utility-bill-sync/internal/domain/import/handler"
	"github.com/FACorreiaa/utility-bill-sync/internal/domain/import/parser"
	"github.com/FACorreiaa/utility-bill-sync/internal/domain/water"
	"github.com/FACorreiaa/utility-bill-sync/pkg/config"
	"github.com/FACorreiaa/utility-bill-sync/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "billsync",
		Short:         "Import utility bill history from PDF invoices into Postgres",
		Version:       readVersionFromEnv(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newSyncCmd(), newExtractCmd(), newDiagnoseCmd(), newMigrateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled folder sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			deps, err := bootstrap()
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			return api.Serve(ctx, deps)
		},
	}
}

func newSyncCmd() *cobra.Command {
	var recursive bool
	cmd := &cobra.Command{
		Use:   "sync electric|water [paths...]",
		Short: "Extract invoices and store the billing periods not yet known",
		Long: "Paths may be files, directories or glob patterns. Without paths the " +
			"provider's configured folder is used.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			deps, err := bootstrap()
			if err != nil {
				return err
			}
			defer deps.Cleanup()

			syncer, err := deps.Syncer(args[0])
			if err != nil {
				return err
			}

			inputs := args[1:]
			if len(inputs) == 0 {
				dir := deps.Config.Sync.ElectricDir
				if args[0] == water.Provider {
					dir = deps.Config.Sync.WaterDir
				}
				if dir == "" {
					return fmt.Errorf("no paths given and no folder configured for %s", args[0])
				}
				inputs = []string{dir}
			}
			paths, err := importhandler.ExpandPDFPaths(inputs, recursive)
			if err != nil {
				return err
			}

			summary, err := syncer.SyncFromDocuments(ctx, paths)
			if summary != nil {
				if werr := writeJSON(cmd.OutOrStdout(), summary); werr != nil {
					return werr
				}
			}
			return err
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", true, "descend into sub-directories")
	return cmd
}

func newExtractCmd() *cobra.Command {
	var (
		csvPath     string
		rowsCSVPath string
		validate    bool
	)
	cmd := &cobra.Command{
		Use:   "extract electric|water <file>",
		Short: "Print the billing periods extracted from one invoice",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Extraction.Timeout+5*time.Second)
			defer cancel()

			source := api.NewTableSource(cfg.Extraction, args[0])
			var (
				table *parser.Table
				rows  []extractor.CanonicalRow
			)
			switch args[0] {
			case electric.Provider:
				table, err = extractor.NewElectric(source).Extract(ctx, args[1])
				if err == nil && validate {
					err = extractor.ValidateElectricTable(table)
				}
				if err == nil {
					rows, err = extractor.CanonicalRows(table, extractor.ColumnReference, extractor.ColumnTotalAmount)
				}
			case water.Provider:
				table, err = extractor.NewWater(source).Extract(ctx, args[1])
				if err == nil {
					rows, err = extractor.CanonicalRows(table, extractor.ColumnReference, extractor.ColumnWaterAmount)
				}
			default:
				return fmt.Errorf("unknown provider %q: use %s or %s", args[0], electric.Provider, water.Provider)
			}
			if err != nil {
				return err
			}

			stdout := cmd.OutOrStdout()
			if csvPath != "" {
				if err := writeCSVFile(stdout, csvPath, func(w io.Writer) error {
					return extractor.WriteTableCSV(w, table)
				}); err != nil {
					return err
				}
			}
			if rowsCSVPath != "" {
				if err := writeCSVFile(stdout, rowsCSVPath, func(w io.Writer) error {
					return extractor.WriteCSV(w, rows)
				}); err != nil {
					return err
				}
			}
			if csvPath == "-" || rowsCSVPath == "-" {
				return nil
			}
			return writeRows(stdout, rows)
		},
	}
	cmd.Flags().StringVar(&csvPath, "csv", "", "also write the full extracted table as CSV to this file (- for stdout)")
	cmd.Flags().StringVar(&rowsCSVPath, "rows-csv", "", "also write the reference and amount rows as CSV to this file (- for stdout)")
	cmd.Flags().BoolVar(&validate, "validate", false, "check the electric table shape")
	return cmd
}

// writeCSVFile runs write against path, or stdout when path is "-".
func writeCSVFile(stdout io.Writer, path string, write func(io.Writer) error) error {
	if path == "-" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func newDiagnoseCmd() *cobra.Command {
	var (
		keywords []string
		provider string
	)
	cmd := &cobra.Command{
		Use:   "diagnose <files...>",
		Short: "Report the tables found in invoices and where keywords appear",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := parser.DefaultLocateOptions
			switch provider {
			case electric.Provider:
			case water.Provider:
				if !cmd.Flags().Changed("keywords") {
					keywords = extractor.WaterKeywords
				}
				opts = parser.LocateOptions{Normalize: true}
			default:
				return fmt.Errorf("unknown provider %q: use %s or %s", provider, electric.Provider, water.Provider)
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			d := diagnostics.New(api.NewTableSource(cfg.Extraction, provider), opts)

			out := cmd.OutOrStdout()
			for _, path := range args {
				d.Diagnose(cmd.Context(), path, keywords).WriteText(out)
				fmt.Fprintln(out)
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVarP(&keywords, "keywords", "k", extractor.ElectricKeywords, "keywords that identify the target table")
	cmd.Flags().StringVarP(&provider, "provider", "p", electric.Provider, "invoice layout, electric or water, for the tabula mode and default keywords")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	var statusOnly bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(cfg.Log.Level, cfg.Log.Format)

			database, err := api.OpenDatabase(cfg, log)
			if err != nil {
				return err
			}
			defer database.Close()

			if !statusOnly {
				if err := database.RunMigrations(); err != nil {
					return fmt.Errorf("migrate failed: %w", err)
				}
			}

			statuses, err := database.Status(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VERSION\tAPPLIED\tSOURCE")
			for _, s := range statuses {
				applied := "pending"
				if s.Applied {
					applied = s.AppliedAt.Format(time.RFC3339)
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Version, applied, s.Path)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "only print migration status")
	return cmd
}

func bootstrap() (*api.Dependencies, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return api.InitDependencies(cfg, logger.New(cfg.Log.Level, cfg.Log.Format))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeRows(w io.Writer, rows []extractor.CanonicalRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "REFERENCE\tAMOUNT")
	for _, row := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", row.Reference, row.Amount)
	}
	return tw.Flush()
}

func readVersionFromEnv() string {
	if v := strings.TrimSpace(os.Getenv("APP_VERSION")); v != "" {
		return v
	}
	return "dev"
}
