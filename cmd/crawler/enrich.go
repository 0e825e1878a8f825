package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aluiziolira/cnki-crawler/pipeline"
	"github.com/spf13/cobra"
)

func newEnrichCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Look up each input record and add authors, author count and release date.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEnrich(cmd)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&a.cfg.InputFile, "input", "i", a.cfg.InputFile, "Input sheet (.xlsx or .csv) with title and source columns")
	flags.StringVarP(&a.cfg.OutputFile, "output", "o", a.cfg.OutputFile, "Output file path")
	flags.StringVar(&a.cfg.OutputFormat, "format", a.cfg.OutputFormat, "Output format: xlsx, csv, json, or dual (default: from output extension)")
	flags.DurationVar(&a.cfg.RecordInterval, "interval", a.cfg.RecordInterval, "Minimum time between record lookups")
	return cmd
}

func (a *app) runEnrich(cmd *cobra.Command) error {
	cfg := a.cfg
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := os.Stat(cfg.InputFile); err != nil {
		return fmt.Errorf("input file: %w", err)
	}
	a.warnIfExists(cfg.OutputFile)

	records, err := pipeline.ReadRecords(cfg.InputFile)
	if err != nil {
		return err
	}
	a.logger.Info("starting enrichment",
		slog.String("input", cfg.InputFile),
		slog.Int("records", len(records)),
		slog.Bool("headless", cfg.Headless),
	)

	s, err := a.newScraper()
	if err != nil {
		return err
	}
	stopMetrics := a.serveMetrics(s)
	defer stopMetrics()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := s.Run(ctx, records)
	if err != nil {
		return fmt.Errorf("open browser session: %w", err)
	}

	format := cfg.ResolvedFormat()
	if err := pipeline.ExportRecords(format, cfg.OutputFile, result.Records); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	printBatchSummary(cmd.OutOrStdout(), result, cfg.OutputFile)
	return nil
}
