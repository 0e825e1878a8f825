package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aluiziolira/cnki-crawler/config"
	"github.com/aluiziolira/cnki-crawler/models"
)

// FieldKey names an advanced-search form field.
type FieldKey string

const (
	FieldTitle  FieldKey = "title"
	FieldSource FieldKey = "source"
)

// fieldOrder is the order form fields are filled in.
var fieldOrder = []FieldKey{FieldTitle, FieldSource}

var fieldSelectors = map[FieldKey]string{
	FieldTitle:  SelectorTitleInput,
	FieldSource: SelectorSourceInput,
}

// Workflow drives the site's search, result and detail pages through a
// single Page. It is not safe for concurrent use.
type Workflow struct {
	page    Page
	cfg     *config.Config
	logger  *slog.Logger
	metrics *Metrics
}

// NewWorkflow binds the workflow steps to page.
func NewWorkflow(page Page, cfg *config.Config, logger *slog.Logger, metrics *Metrics) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{
		page:    page,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "workflow")),
		metrics: metrics,
	}
}

// EnableSameTabNavigation names the current window so the advanced-search
// link opens in it instead of a new tab.
func (w *Workflow) EnableSameTabNavigation(ctx context.Context) error {
	return classifyError(ctx, "name window", w.page.SetWindowName(ctx, SameTabWindowName))
}

// OpenAdvancedSearch loads the home page and switches to the advanced
// search form.
func (w *Workflow) OpenAdvancedSearch(ctx context.Context) error {
	if err := w.page.Navigate(ctx, w.cfg.BaseURL); err != nil {
		return classifyError(ctx, "home", err)
	}
	if err := w.EnableSameTabNavigation(ctx); err != nil {
		return err
	}
	if err := w.page.Click(ctx, SelectorAdvancedSearchLink); err != nil {
		return classifyError(ctx, "advanced search link", err)
	}
	if err := w.page.Sleep(ctx, w.cfg.AdvancedSearchSettle); err != nil {
		return err
	}
	if err := w.page.WaitPresent(ctx, SelectorTitleInput, w.cfg.WaitTimeout); err != nil {
		return classifyError(ctx, "advanced search form", err)
	}
	return nil
}

// FillAndSubmit types each non-empty field and submits the form in the
// current tab.
func (w *Workflow) FillAndSubmit(ctx context.Context, fields map[FieldKey]string) error {
	for _, key := range fieldOrder {
		value, ok := fields[key]
		if !ok || value == "" {
			continue
		}
		if err := w.page.Type(ctx, fieldSelectors[key], value, w.cfg.FormKeyDelay); err != nil {
			return classifyError(ctx, fmt.Sprintf("type %s", key), err)
		}
	}
	if err := w.page.SetAttribute(ctx, SelectorSearchButton, "target", "_self"); err != nil {
		return classifyError(ctx, "search button", err)
	}
	if err := w.page.Click(ctx, SelectorSearchButton); err != nil {
		return classifyError(ctx, "submit search", err)
	}
	return nil
}

// SubmitTopic runs a quick search for topic from the home page.
func (w *Workflow) SubmitTopic(ctx context.Context, topic string) error {
	if err := w.page.Navigate(ctx, w.cfg.BaseURL); err != nil {
		return classifyError(ctx, "home", err)
	}
	if err := w.page.Type(ctx, SelectorTopicInput, topic, w.cfg.TopicKeyDelay); err != nil {
		return classifyError(ctx, "type topic", err)
	}
	if err := w.page.PressEnter(ctx, SelectorTopicInput); err != nil {
		return classifyError(ctx, "submit topic", err)
	}
	return nil
}

// SearchRecord runs the advanced search for one input record.
func (w *Workflow) SearchRecord(ctx context.Context, rec *models.Record) error {
	start := time.Now()
	defer func() { w.metrics.ObserveStep("search", time.Since(start)) }()

	if err := w.OpenAdvancedSearch(ctx); err != nil {
		return err
	}
	return w.FillAndSubmit(ctx, map[FieldKey]string{
		FieldTitle:  rec.Title(),
		FieldSource: rec.Source(),
	})
}
