package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aluiziolira/cnki-crawler/models"
	"github.com/aluiziolira/cnki-crawler/parser"
)

// pagePollInterval spaces pager re-reads while waiting for it to re-render.
const pagePollInterval = 100 * time.Millisecond

// ReadListingSummary switches the listing to the configured page size and
// reads the total count and page mark once the pager has re-rendered.
func (w *Workflow) ReadListingSummary(ctx context.Context) (models.ListingSummary, error) {
	if err := w.page.WaitPresent(ctx, SelectorResultRows, w.cfg.WaitTimeout); err != nil {
		return models.ListingSummary{}, w.missingResult(ctx, err)
	}
	_, pagesBefore, err := w.readPageMark(ctx)
	if err != nil {
		return models.ListingSummary{}, err
	}
	if err := w.page.Click(ctx, SelectorPageSizeToggle); err != nil {
		return models.ListingSummary{}, classifyError(ctx, "page size menu", err)
	}
	if err := w.page.Click(ctx, pageSizeOption(w.cfg.PageSizeOption)); err != nil {
		return models.ListingSummary{}, classifyError(ctx, "page size option", err)
	}
	if err := w.page.Sleep(ctx, w.cfg.ListingSettle); err != nil {
		return models.ListingSummary{}, err
	}
	if err := w.page.WaitPresent(ctx, SelectorResultRows, w.cfg.WaitTimeout); err != nil {
		return models.ListingSummary{}, classifyError(ctx, "resized listing", err)
	}
	current, pages, err := w.awaitResize(ctx, pagesBefore)
	if err != nil {
		return models.ListingSummary{}, err
	}

	countText, err := w.page.Text(ctx, SelectorTotalCount)
	if err != nil {
		return models.ListingSummary{}, extractionErr(ctx, "total_count", err)
	}
	total, err := parser.ParseCount(countText)
	if err != nil {
		return models.ListingSummary{}, ErrExtraction{Field: "total_count", Err: err}
	}

	summary := models.ListingSummary{TotalCount: total, CurrentPage: current, TotalPages: pages}
	w.logger.Info("listing summary",
		slog.Int("total_count", summary.TotalCount),
		slog.Int("total_pages", summary.TotalPages),
	)
	return summary, nil
}

// awaitResize polls the pager until its page count moves away from
// pagesBefore. A single-page listing cannot shrink, and a listing already at
// the chosen size never changes, so on expiry the last reading is kept.
func (w *Workflow) awaitResize(ctx context.Context, pagesBefore int) (current, pages int, err error) {
	if pagesBefore <= 1 {
		return w.readPageMark(ctx)
	}
	deadline := time.Now().Add(w.cfg.WaitTimeout)
	for {
		current, pages, err = w.readPageMark(ctx)
		if err == nil && pages != pagesBefore {
			return current, pages, nil
		}
		if ctx.Err() != nil {
			return 0, 0, ctx.Err()
		}
		if time.Now().After(deadline) {
			if err != nil {
				return 0, 0, err
			}
			w.logger.Debug("page count unchanged after resize", slog.Int("total_pages", pages))
			return current, pages, nil
		}
		if err := w.page.Sleep(ctx, pagePollInterval); err != nil {
			return 0, 0, err
		}
	}
}

// ForEachPage calls visit for pages 0..totalPages-1, advancing with the
// next-page control in between. It stops at the first error from visit or
// from the page itself.
func (w *Workflow) ForEachPage(ctx context.Context, totalPages int, visit func(page int) error) error {
	for i := 0; i < totalPages; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.page.WaitPresent(ctx, SelectorResultRows, w.cfg.WaitTimeout); err != nil {
			return classifyError(ctx, fmt.Sprintf("listing page %d", i+1), err)
		}
		if err := visit(i); err != nil {
			return err
		}
		if i == totalPages-1 {
			break
		}
		if err := w.nextPage(ctx, i+2); err != nil {
			return err
		}
	}
	return nil
}

// ListingRows extracts the rows of the listing page currently shown.
func (w *Workflow) ListingRows(ctx context.Context, page int) ([]*models.ListingRow, error) {
	start := time.Now()
	defer func() { w.metrics.ObserveStep("listing_rows", time.Since(start)) }()

	body, err := w.page.OuterHTML(ctx, SelectorResultBody)
	if err != nil {
		return nil, extractionErr(ctx, "listing", err)
	}
	location, err := w.page.Location(ctx)
	if err != nil {
		return nil, extractionErr(ctx, "location", err)
	}
	rows, err := parser.ExtractListingRows(location, body, page)
	if err != nil {
		return nil, ErrExtraction{Field: "listing", Err: err}
	}
	return rows, nil
}

// nextPage clicks the next-page control and waits until the pager reports
// the 1-based page want.
func (w *Workflow) nextPage(ctx context.Context, want int) error {
	if err := w.page.Click(ctx, SelectorNextPage); err != nil {
		return classifyError(ctx, fmt.Sprintf("next page %d", want), err)
	}

	deadline := time.Now().Add(w.cfg.WaitTimeout)
	for {
		current, _, err := w.readPageMark(ctx)
		if err == nil && current >= want {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if time.Now().After(deadline) {
			return ErrNavigationTimeout{
				Step: fmt.Sprintf("next page %d", want),
				Err:  fmt.Errorf("pager still at %d", current),
			}
		}
		if err := w.page.Sleep(ctx, pagePollInterval); err != nil {
			return err
		}
	}
}

func (w *Workflow) readPageMark(ctx context.Context) (current, total int, err error) {
	text, err := w.page.Text(ctx, SelectorPageMark)
	if err != nil {
		return 0, 0, extractionErr(ctx, "page_mark", err)
	}
	current, total, err = parser.ParsePageMark(text)
	if err != nil {
		return 0, 0, ErrExtraction{Field: "page_mark", Err: err}
	}
	return current, total, nil
}
