package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aluiziolira/cnki-crawler/models"
	"github.com/aluiziolira/cnki-crawler/parser"
)

// Run enriches records in order over a single browser session. Records are
// updated in place and only when every step for them succeeded. A failure
// to open the session is returned before any record is touched; per-record
// failures are reported in the result's outcomes.
func (s *Scraper) Run(ctx context.Context, records []*models.Record) (*models.BatchResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	page, closer, err := s.opener.Open(ctx)
	if err != nil {
		s.Metrics.IncError(errorTypeLabel(err))
		return nil, err
	}
	defer s.closeSession(closer)

	wf := NewWorkflow(page, s.cfg, s.logger, s.Metrics)
	result := &models.BatchResult{
		Records:      records,
		Outcomes:     make([]models.Outcome, 0, len(records)),
		StartTime:    time.Now(),
		ErrorsByType: make(map[string]int),
	}

	for i, rec := range records {
		outcome := s.processRecord(ctx, wf, i, rec)
		result.Outcomes = append(result.Outcomes, outcome)
		s.Metrics.IncRecord(string(outcome.Status))

		switch outcome.Status {
		case models.StatusEnriched:
			result.Enriched++
		case models.StatusCanceled:
			result.Canceled++
		default:
			result.Failed++
			result.ErrorsByType[outcome.Reason]++
			s.Metrics.IncError(outcome.Reason)
		}

		if (i+1)%50 == 0 {
			s.logger.Debug("batch progress",
				slog.Int("processed", i+1),
				slog.Int("total", len(records)),
				slog.Int("enriched", result.Enriched),
			)
		}
	}

	result.EndTime = time.Now()
	if result.Canceled > 0 {
		s.logger.Warn("run canceled", slog.Int("unprocessed", result.Canceled))
	}
	return result, nil
}

func (s *Scraper) processRecord(ctx context.Context, wf *Workflow, index int, rec *models.Record) models.Outcome {
	start := time.Now()
	outcome := models.Outcome{Index: index}

	meta, err := s.enrich(ctx, wf, rec)
	outcome.Duration = time.Since(start)

	switch {
	case err == nil:
		rec.Enrich(meta)
		outcome.Status = models.StatusEnriched
		outcome.Metadata = &meta
		s.logger.Info("record enriched",
			slog.Int("index", index),
			slog.String("title", rec.Title()),
			slog.Int("authors", meta.AuthorCount),
			slog.Duration("duration", outcome.Duration),
		)
	case errors.Is(err, context.Canceled) || ctx.Err() != nil:
		outcome.Status = models.StatusCanceled
		outcome.Reason = "canceled"
		outcome.Err = err
	default:
		outcome.Status = models.StatusFailed
		outcome.Reason = errorTypeLabel(err)
		outcome.Err = err
		s.logger.Error("record failed",
			slog.Int("index", index),
			slog.String("title", rec.Title()),
			slog.String("category", outcome.Reason),
			slog.Any("error", err),
		)
	}
	return outcome
}

func (s *Scraper) enrich(ctx context.Context, wf *Workflow, rec *models.Record) (models.DetailMetadata, error) {
	if err := ctx.Err(); err != nil {
		return models.DetailMetadata{}, err
	}
	if err := parser.ValidateRecord(rec); err != nil {
		return models.DetailMetadata{}, ErrInvalidRecord{Err: err}
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return models.DetailMetadata{}, err
		}
	}
	if err := wf.SearchRecord(ctx, rec); err != nil {
		return models.DetailMetadata{}, err
	}
	if err := wf.OpenFirstResult(ctx); err != nil {
		return models.DetailMetadata{}, err
	}
	return wf.ExtractDetailMetadata(ctx)
}

// RunTopic searches topic and streams every listing row to sink. A page
// whose rows cannot be read is recorded and skipped; a page that cannot be
// reached ends the walk, since later pages are only reachable through it.
func (s *Scraper) RunTopic(ctx context.Context, topic string, sink RowSink) (*models.TopicResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	page, closer, err := s.opener.Open(ctx)
	if err != nil {
		s.Metrics.IncError(errorTypeLabel(err))
		return nil, err
	}
	defer s.closeSession(closer)

	wf := NewWorkflow(page, s.cfg, s.logger, s.Metrics)
	result := &models.TopicResult{
		Topic:      topic,
		StartTime:  time.Now(),
		PageErrors: make(map[int]string),
	}
	defer func() { result.EndTime = time.Now() }()

	if err := wf.SubmitTopic(ctx, topic); err != nil {
		s.Metrics.IncError(errorTypeLabel(err))
		return result, fmt.Errorf("search topic %q: %w", topic, err)
	}
	summary, err := wf.ReadListingSummary(ctx)
	var noResults ErrNoResults
	if errors.As(err, &noResults) {
		s.logger.Warn("topic has no results", slog.String("topic", topic))
		return result, nil
	}
	if err != nil {
		s.Metrics.IncError(errorTypeLabel(err))
		return result, fmt.Errorf("read listing summary: %w", err)
	}
	result.Summary = summary

	pages := summary.TotalPages
	if s.cfg.MaxPages > 0 && pages > s.cfg.MaxPages {
		pages = s.cfg.MaxPages
	}

	next := 0
	var sinkErr error
	err = wf.ForEachPage(ctx, pages, func(pageIndex int) error {
		next = pageIndex + 1
		rows, err := wf.ListingRows(ctx, pageIndex)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			result.PageErrors[pageIndex] = err.Error()
			s.Metrics.IncError(errorTypeLabel(err))
			s.logger.Error("listing page failed",
				slog.Int("page", pageIndex+1),
				slog.Any("error", err),
			)
			return nil
		}
		if err := sink.Process(rows...); err != nil {
			sinkErr = fmt.Errorf("page %d: %w", pageIndex+1, err)
			return sinkErr
		}
		result.PagesVisited++
		result.RowCount += len(rows)
		s.Metrics.AddListingPage(len(rows))
		s.logger.Info("listing page",
			slog.Int("page", pageIndex+1),
			slog.Int("pages", pages),
			slog.Int("rows", len(rows)),
		)
		return nil
	})

	switch {
	case err == nil:
	case sinkErr != nil:
		return result, sinkErr
	case ctx.Err() != nil:
		result.Canceled = true
		s.logger.Warn("topic run canceled", slog.Int("pages_visited", result.PagesVisited))
	default:
		result.PageErrors[next] = err.Error()
		s.Metrics.IncError(errorTypeLabel(err))
		s.logger.Error("listing walk stopped",
			slog.Int("page", next+1),
			slog.Any("error", err),
		)
	}
	return result, nil
}
