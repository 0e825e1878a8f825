package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the crawler.
type Metrics struct {
	Registry          *prometheus.Registry
	RecordsTotal      *prometheus.CounterVec
	StepDuration      *prometheus.HistogramVec
	ErrorsTotal       *prometheus.CounterVec
	PageErrorsTotal   *prometheus.CounterVec
	ListingPagesTotal prometheus.Counter
	ListingRowsTotal  prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	records := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_records_total",
			Help: "Input records processed, by outcome.",
		},
		[]string{"status"},
	)
	stepDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crawler_step_duration_seconds",
			Help:    "Duration of each workflow step.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"step"},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_errors_total",
			Help: "Total number of crawler errors by type.",
		},
		[]string{"error_type"},
	)
	pageErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crawler_page_errors_total",
			Help: "Runtime and script errors reported by the browser.",
		},
		[]string{"kind"},
	)
	listingPages := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_listing_pages_total",
			Help: "Result listing pages visited.",
		},
	)
	listingRows := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crawler_listing_rows_total",
			Help: "Result listing rows extracted.",
		},
	)

	registry.MustRegister(records, stepDuration, errorsTotal, pageErrors, listingPages, listingRows)

	return &Metrics{
		Registry:          registry,
		RecordsTotal:      records,
		StepDuration:      stepDuration,
		ErrorsTotal:       errorsTotal,
		PageErrorsTotal:   pageErrors,
		ListingPagesTotal: listingPages,
		ListingRowsTotal:  listingRows,
	}
}

// IncRecord counts one processed record.
func (m *Metrics) IncRecord(status string) {
	if m == nil {
		return
	}
	m.RecordsTotal.WithLabelValues(status).Inc()
}

// ObserveStep records how long a workflow step took.
func (m *Metrics) ObserveStep(step string, d time.Duration) {
	if m == nil {
		return
	}
	m.StepDuration.WithLabelValues(step).Observe(d.Seconds())
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncPageError counts a browser-reported error. Safe to pass as
// browser.Options.OnPageError.
func (m *Metrics) IncPageError(kind, _ string) {
	if m == nil {
		return
	}
	m.PageErrorsTotal.WithLabelValues(kind).Inc()
}

// AddListingPage counts one listing page and its rows.
func (m *Metrics) AddListingPage(rows int) {
	if m == nil {
		return
	}
	m.ListingPagesTotal.Inc()
	m.ListingRowsTotal.Add(float64(rows))
}
