package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/insightdelivered/card-statement-extractor/internal/api"
	"github.com/insightdelivered/card-statement-extractor/internal/config"
	"github.com/insightdelivered/card-statement-extractor/internal/extractor"
	"github.com/insightdelivered/card-statement-extractor/internal/manifest"
	"github.com/insightdelivered/card-statement-extractor/internal/models"
	"github.com/insightdelivered/card-statement-extractor/internal/pipeline"
	"github.com/insightdelivered/card-statement-extractor/internal/writer"
)

var (
	cfgFile      string
	manifestFile string
	outputFile   string
)

var rootCmd = &cobra.Command{
	Use:   "statement-extractor",
	Short: "Extract card and account movements from statement PDFs",
	Long: `Card Statement Extractor

Reads one or more statement PDFs, extracts the movements listed on each
page, optionally removes duplicates and sorts them by date, and writes the
result as CSV or XLSX together with a per-month summary.

Recognized line layouts:
  REFERENCE(20+ digits) DATECODE DD/MM/YYYY DD/MM/YYYY DESCRIPTION 12,50
  DD/MM/YYYY DD/MM/YYYY DESCRIPTION 12,50`,
	SilenceUsage: true,
}

var extractCmd = &cobra.Command{
	Use:   "extract [flags] <input.pdf> [input2.pdf ...]",
	Short: "Extract movements from statement PDFs",
	Example: `  # Convert a single statement
  statement-extractor extract estratto_gennaio.pdf

  # Several statements, keep duplicates, include reference codes
  statement-extractor extract --remove-duplicates=false --include-extra-columns jan.pdf feb.pdf

  # Excel output from a batch manifest
  statement-extractor extract --manifest batch.yaml --format xlsx`,
	RunE: runExtract,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the extraction API over HTTP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and exit",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "statement-extractor v%s\n", api.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")

	extractCmd.Flags().StringVarP(&manifestFile, "manifest", "m", "", "YAML manifest listing the documents to process")
	extractCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (default: movimenti_estratti_<timestamp>.<format> in --output-dir)")
	extractCmd.Flags().String("output-dir", ".", "Directory for the generated file")
	extractCmd.Flags().String("format", config.FormatCSV, "Output format: csv or xlsx")
	extractCmd.Flags().Bool("remove-duplicates", true, "Remove movements with the same date, description and amount")
	extractCmd.Flags().Bool("sort-by-date", true, "Sort movements by date")
	extractCmd.Flags().Bool("include-extra-columns", false, "Include operation date and reference code columns")

	serveCmd.Flags().String("addr", ":8080", "Listen address")

	rootCmd.AddCommand(extractCmd, serveCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "extractor",
		Level:           cfg.LogLevel(),
	})
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.Build(cfgFile, cmd.Flags())
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	opts := cfg.Options

	var paths []string
	if manifestFile != "" {
		m, err := manifest.Load(manifestFile)
		if err != nil {
			return err
		}
		if paths, err = m.Paths(); err != nil {
			return err
		}
		opts = applyManifestOptions(cmd.Flags(), m.Options, opts)
	}
	argPaths, err := expandInputs(args)
	if err != nil {
		return err
	}
	paths = append(paths, argPaths...)
	if len(paths) == 0 {
		return cmd.Help()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := pipeline.New(logger).ProcessSeq(ctx, extractor.Documents(paths), opts)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if err != nil {
		logger.Warn("interrupted; writing movements from processed documents", "documents", len(res.Documents))
	}

	out := cmd.OutOrStdout()
	for _, d := range res.Documents {
		if d.Warning != "" {
			fmt.Fprintf(out, "  %s: %s\n", d.Name, d.Warning)
			continue
		}
		fmt.Fprintf(out, "  %s: %d movement(s) from %d page(s)\n", d.Name, d.Movements, d.Pages)
	}

	if res.NoData {
		return fmt.Errorf("no movements found in any file; check that the PDFs are card or account statements")
	}

	path, err := writeOutput(cfg, opts, res)
	if err != nil {
		return err
	}

	printSummary(cmd, res)
	fmt.Fprintf(out, "  Output: %s\n", path)
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	app := api.NewApp(api.NewHandler(cfg.Options, logger), cfg.Server.BodyLimitMB)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("listening", "addr", cfg.Server.Addr)
	return app.Listen(cfg.Server.Addr)
}

// applyManifestOptions applies the manifest's option overrides, except for
// options given explicitly on the command line.
func applyManifestOptions(flags *pflag.FlagSet, o manifest.OptionOverrides, opts models.Options) models.Options {
	if flags.Changed("remove-duplicates") {
		o.RemoveDuplicates = nil
	}
	if flags.Changed("sort-by-date") {
		o.SortByDate = nil
	}
	if flags.Changed("include-extra-columns") {
		o.IncludeExtraColumns = nil
	}
	return o.Apply(opts)
}

// expandInputs expands glob patterns and checks that every input is a PDF.
func expandInputs(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("input file not found: %s", arg)
		}
		for _, m := range matches {
			if ext := strings.ToLower(filepath.Ext(m)); ext != ".pdf" {
				return nil, fmt.Errorf("expected .pdf file, got %q", m)
			}
			paths = append(paths, m)
		}
	}
	return paths, nil
}

func writeOutput(cfg *config.Config, opts models.Options, res *models.Result) (string, error) {
	path := outputFile
	if path == "" {
		path = filepath.Join(cfg.Output.Dir, writer.Filename(time.Now(), cfg.Output.Format))
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create output file %q: %w", path, err)
	}
	defer f.Close()

	switch cfg.Output.Format {
	case config.FormatXLSX:
		err = (&writer.XLSXWriter{IncludeExtraColumns: opts.IncludeExtraColumns}).Write(f, res)
	default:
		err = (&writer.CSVWriter{IncludeExtraColumns: opts.IncludeExtraColumns}).Write(f, res.Movements)
	}
	if err != nil {
		return "", fmt.Errorf("%s write failed: %w", cfg.Output.Format, err)
	}
	return path, nil
}

func printSummary(cmd *cobra.Command, res *models.Result) {
	out := cmd.OutOrStdout()
	st := res.Stats
	fmt.Fprintf(out, "  Movements: %d\n", st.Count)
	fmt.Fprintf(out, "  Total: € %.2f\n", st.Total)
	fmt.Fprintf(out, "  Period (days): %d\n", st.PeriodDays)
	fmt.Fprintf(out, "  Average: € %.2f\n", st.Mean)

	if len(res.Movements) <= 1 {
		return
	}
	fmt.Fprintln(out, "  Monthly:")
	fmt.Fprintf(out, "    %-8s %10s %12s %10s\n", "Month", "Movements", "Total €", "Mean €")
	for _, m := range res.Monthly {
		fmt.Fprintf(out, "    %-8s %10d %12.2f %10.2f\n", m.Period(), m.Count, m.Total, m.Mean)
	}
}
