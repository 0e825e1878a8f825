package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/aluiziolira/cnki-crawler/browser"
)

// OpenFirstResult follows the first result link into its detail page in
// the current tab.
func (w *Workflow) OpenFirstResult(ctx context.Context) error {
	start := time.Now()
	defer func() { w.metrics.ObserveStep("open_result", time.Since(start)) }()

	if err := w.page.WaitPresent(ctx, SelectorFirstResultLink, w.cfg.WaitTimeout); err != nil {
		return w.missingResult(ctx, err)
	}
	if err := w.page.SetAttribute(ctx, SelectorFirstResultLink, "target", "_self"); err != nil {
		return classifyError(ctx, "result link", err)
	}
	if err := w.page.ClickInPage(ctx, SelectorFirstResultLink); err != nil {
		var notFound browser.ErrElementNotFound
		if errors.As(err, &notFound) {
			return ErrNoResults{Err: err}
		}
		return classifyError(ctx, "open result", err)
	}
	if err := w.page.Sleep(ctx, w.cfg.DetailSettle); err != nil {
		return err
	}
	if err := w.page.WaitPresent(ctx, SelectorDetailMarker, w.cfg.WaitTimeout); err != nil {
		return classifyError(ctx, "detail page", err)
	}
	return nil
}

// missingResult tells an empty result grid apart from a page that never
// rendered one.
func (w *Workflow) missingResult(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if n, countErr := w.page.Count(ctx, SelectorResultGrid); countErr == nil && n > 0 {
		return ErrNoResults{Err: err}
	}
	return classifyError(ctx, "result list", err)
}
