package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aluiziolira/cnki-crawler/models"
	"github.com/aluiziolira/cnki-crawler/pipeline"
	"github.com/spf13/cobra"
)

const defaultListingOutput = "listing.csv"

func newTopicCmd(a *app) *cobra.Command {
	output := defaultListingOutput
	cmd := &cobra.Command{
		Use:   "topic TOPIC",
		Short: "Search a topic and export every row of every result page.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.cfg.OutputFile = output
			return a.runTopic(cmd, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&output, "output", "o", output, "Output file path")
	flags.StringVar(&a.cfg.OutputFormat, "format", a.cfg.OutputFormat, "Output format: xlsx, csv, json, or dual (default: from output extension)")
	flags.IntVar(&a.cfg.MaxPages, "max-pages", a.cfg.MaxPages, "Stop after this many result pages (0 = all)")
	flags.IntVar(&a.cfg.Workers, "workers", a.cfg.Workers, "Output writer workers")
	return cmd
}

func (a *app) runTopic(cmd *cobra.Command, topic string) error {
	cfg := a.cfg
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.warnIfExists(cfg.OutputFile)

	s, err := a.newScraper()
	if err != nil {
		return err
	}
	stopMetrics := a.serveMetrics(s)
	defer stopMetrics()

	writer, err := pipeline.CreateWriter(cfg.ResolvedFormat(), cfg.OutputFile, models.ListingHeader)
	if err != nil {
		return fmt.Errorf("creating writer: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Rows already extracted are still written after an interrupt.
	p := pipeline.NewPipeline(context.WithoutCancel(ctx), writer, cfg)
	p.Start(cfg.Workers)
	if cfg.Verbose {
		p.StartMetricsReporting(10 * time.Second)
	}

	a.logger.Info("starting topic search", slog.String("topic", topic))
	result, runErr := s.RunTopic(ctx, topic, p)

	pipelineErr := p.Close()
	if err := writer.Close(); err != nil && pipelineErr == nil {
		pipelineErr = fmt.Errorf("close writer: %w", err)
	}
	if runErr != nil {
		return runErr
	}
	if pipelineErr != nil {
		return fmt.Errorf("pipeline shutdown failed: %w", pipelineErr)
	}
	if result.RowCount > 0 {
		if err := writer.Validate(); err != nil {
			return fmt.Errorf("output validation failed: %w", err)
		}
	}

	printTopicSummary(cmd.OutOrStdout(), result, p.GetMetrics(), cfg.OutputFile)
	return nil
}
