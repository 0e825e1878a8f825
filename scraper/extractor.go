package scraper

import (
	"context"
	"log/slog"
	"time"

	"github.com/aluiziolira/cnki-crawler/models"
	"github.com/aluiziolira/cnki-crawler/parser"
)

// ExtractDetailMetadata reads authors and release date from the open
// detail page.
func (w *Workflow) ExtractDetailMetadata(ctx context.Context) (models.DetailMetadata, error) {
	start := time.Now()
	defer func() { w.metrics.ObserveStep("extract", time.Since(start)) }()

	if err := w.page.WaitPresent(ctx, SelectorAuthorSpans, w.cfg.WaitTimeout); err != nil {
		return models.DetailMetadata{}, extractionErr(ctx, "authors", err)
	}
	authorTexts, err := w.page.TextAll(ctx, SelectorAuthorSpans)
	if err != nil {
		return models.DetailMetadata{}, extractionErr(ctx, "authors", err)
	}
	releaseDate, err := w.page.Text(ctx, SelectorReleaseDate)
	if err != nil {
		return models.DetailMetadata{}, extractionErr(ctx, "release_date", err)
	}

	meta := parser.BuildDetailMetadata(authorTexts, releaseDate)
	w.logger.Debug("detail metadata",
		slog.Int("authors", meta.AuthorCount),
		slog.String("release_date", meta.ReleaseDate),
	)
	return meta, nil
}

func extractionErr(ctx context.Context, field string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return ErrExtraction{Field: field, Err: err}
}
