package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/ekaya-insights/pkg/ingest"
	"github.com/ekaya-inc/ekaya-insights/pkg/insights"
	"github.com/ekaya-inc/ekaya-insights/pkg/services"
)

type analyzeOptions struct {
	maxRows  int
	insights bool
	format   string
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	opts := analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <file.csv>",
		Short: "Summarize a CSV file locally without storing it",
		Long: `Runs the upload pipeline on a local CSV file and prints the report.
Only configuration for the AI provider is read, and only with --insights.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				generator insights.Generator
				logger    = zap.NewNop()
			)
			if opts.insights {
				cfg, l, err := root.load()
				if err != nil {
					return err
				}
				logger = l
				defer func() { _ = logger.Sync() }()

				generator, err = newGenerator(cmd.Context(), cfg, logger)
				if err != nil {
					return err
				}
			}
			return runAnalyze(cmd, args[0], opts, generator, logger)
		},
	}

	cmd.Flags().IntVar(&opts.maxRows, "max-rows", ingest.DefaultMaxRows, "maximum data rows to read")
	cmd.Flags().BoolVar(&opts.insights, "insights", false, "ask the configured AI provider for insights")
	cmd.Flags().StringVar(&opts.format, "format", "json", "output format: json or yaml")
	return cmd
}

func runAnalyze(cmd *cobra.Command, path string, opts analyzeOptions, generator insights.Generator, logger *zap.Logger) error {
	if opts.format != "json" && opts.format != "yaml" {
		return fmt.Errorf("unsupported --format %q: use json or yaml", opts.format)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	pipeline := services.NewPipeline(opts.maxRows, generator, logger)
	report, err := pipeline.Run(cmd.Context(), filepath.Base(path), f, generator != nil)
	if err != nil {
		return err
	}

	return writeReport(cmd.OutOrStdout(), report, opts.format)
}

func writeReport(w io.Writer, report *services.Report, format string) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}
