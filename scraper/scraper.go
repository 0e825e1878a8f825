// Package scraper drives the search, navigation and extraction workflow
// against the bibliographic site through a single browser page.
package scraper

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"

	"github.com/aluiziolira/cnki-crawler/config"
	"github.com/aluiziolira/cnki-crawler/models"
	"golang.org/x/time/rate"
)

// RowSink receives listing rows as pages are extracted. *pipeline.Pipeline
// satisfies it.
type RowSink interface {
	Process(rows ...*models.ListingRow) error
}

// Scraper runs the enrichment and topic workflows over one browser session
// per run.
type Scraper struct {
	cfg     *config.Config
	opener  Opener
	logger  *slog.Logger
	limiter *rate.Limiter
	Metrics *Metrics
}

// NewScraper builds a scraper that opens its session through opener.
func NewScraper(cfg *config.Config, opener Opener, logger *slog.Logger) (*Scraper, error) {
	if opener == nil {
		return nil, fmt.Errorf("session opener is required")
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scraper{
		cfg:     cfg,
		opener:  opener,
		logger:  logger.With(slog.String("component", "scraper")),
		Metrics: NewMetrics(),
	}
	if cfg.RecordInterval > 0 {
		s.limiter = rate.NewLimiter(rate.Every(cfg.RecordInterval), 1)
	}
	return s, nil
}

func (s *Scraper) closeSession(closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		s.logger.Warn("close browser session", slog.Any("error", err))
	}
}
