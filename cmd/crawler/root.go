package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aluiziolira/cnki-crawler/browser"
	"github.com/aluiziolira/cnki-crawler/config"
	"github.com/aluiziolira/cnki-crawler/scraper"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

// app carries what every subcommand shares once flags are parsed.
type app struct {
	cfg    *config.Config
	envErr error
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{cfg: config.DefaultConfig()}
	if err := config.LoadDotEnv(); err != nil {
		a.envErr = err
	} else {
		a.envErr = config.ApplyEnv(a.cfg)
	}

	root := &cobra.Command{
		Use:           "crawler",
		Short:         "Search CNKI and collect article metadata with a real browser.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.envErr != nil {
				return fmt.Errorf("environment: %w", a.envErr)
			}
			logger, level := newLogger(cmd.ErrOrStderr(), a.cfg.Verbose)
			a.logger = logger.With(slog.String("run_id", uuid.NewString()))
			slog.SetDefault(a.logger)
			slog.SetLogLoggerLevel(level.Level())
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVarP(&a.cfg.Verbose, "debug", "d", a.cfg.Verbose, "Enable debug logging")
	flags.BoolVarP(&a.cfg.Headless, "headless", "l", a.cfg.Headless, "Run the browser without a window")
	flags.StringVar(&a.cfg.ChromePath, "chrome", a.cfg.ChromePath, "Browser executable (default: platform install location)")
	flags.StringVar(&a.cfg.MetricsAddr, "metrics-addr", a.cfg.MetricsAddr, "Prometheus metrics listen address (e.g. :9090)")
	flags.StringVar(&a.cfg.BaseURL, "base-url", a.cfg.BaseURL, "Site root the searches start from")
	flags.DurationVar(&a.cfg.WaitTimeout, "wait-timeout", a.cfg.WaitTimeout, "How long to wait for an element")
	flags.DurationVar(&a.cfg.NavigationTimeout, "navigation-timeout", a.cfg.NavigationTimeout, "How long to wait for a page load")

	root.AddCommand(newEnrichCmd(a), newTopicCmd(a))
	return root
}

// newScraper wires a scraper to a real browser session whose page errors
// feed the scraper's metrics.
func (a *app) newScraper() (*scraper.Scraper, error) {
	var s *scraper.Scraper
	opener := scraper.OpenerFunc(func(ctx context.Context) (scraper.Page, io.Closer, error) {
		opts := browser.Options{
			ExecPath:          a.cfg.ChromePath,
			Headless:          a.cfg.Headless,
			UserAgent:         a.cfg.UserAgent,
			NavigationTimeout: a.cfg.NavigationTimeout,
			WaitTimeout:       a.cfg.WaitTimeout,
			NetworkIdle:       a.cfg.NetworkIdle,
			Logger:            a.logger,
			OnPageError:       s.Metrics.IncPageError,
		}
		return scraper.BrowserOpener(opts).Open(ctx)
	})

	s, err := scraper.NewScraper(a.cfg, opener, a.logger)
	if err != nil {
		return nil, fmt.Errorf("initialising scraper: %w", err)
	}
	return s, nil
}

// serveMetrics exposes s's registry when a metrics address is configured.
// The returned func shuts the server down.
func (a *app) serveMetrics(s *scraper.Scraper) func() {
	if a.cfg.MetricsAddr == "" || s.Metrics == nil {
		return func() {}
	}

	server := &http.Server{
		Addr:              a.cfg.MetricsAddr,
		Handler:           promhttp.HandlerFor(s.Metrics.Registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	a.logger.Info("metrics server enabled", slog.String("addr", a.cfg.MetricsAddr))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			a.logger.Error("metrics server shutdown failed", slog.Any("error", err))
		}
	}
}

// warnIfExists logs when path is about to be overwritten.
func (a *app) warnIfExists(path string) {
	if _, err := os.Stat(path); err == nil {
		a.logger.Warn("output file exists and will be overwritten", slog.String("path", path))
	}
}

func newLogger(w io.Writer, verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if f, ok := w.(*os.File); ok && isTerminal(f) {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
