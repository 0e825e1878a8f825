package models

import (
	"strings"
	"time"
)

// DetailMetadata is what the detail page yields for one article.
type DetailMetadata struct {
	Authors     []string `json:"authors"`
	AuthorCount int      `json:"author_count"`
	ReleaseDate string   `json:"release_date"`
}

// AuthorsField is the comma-joined form written to the output sheet.
func (m DetailMetadata) AuthorsField() string {
	return strings.Join(m.Authors, ",")
}

// Status tags the outcome of one record.
type Status string

const (
	StatusEnriched Status = "enriched"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// Outcome records what happened to the record at Index.
type Outcome struct {
	Index    int
	Status   Status
	Metadata *DetailMetadata
	Reason   string
	Err      error
	Duration time.Duration
}

// BatchResult holds the overall result of an enrichment run.
type BatchResult struct {
	Records      []*Record
	Outcomes     []Outcome
	StartTime    time.Time
	EndTime      time.Time
	Enriched     int
	Failed       int
	Canceled     int
	ErrorsByType map[string]int
}

// ListingSummary is the pager state of a result listing.
type ListingSummary struct {
	TotalCount  int
	CurrentPage int
	TotalPages  int
}

// TopicResult holds the overall result of a topic listing run.
type TopicResult struct {
	Topic        string
	Summary      ListingSummary
	StartTime    time.Time
	EndTime      time.Time
	PagesVisited int
	RowCount     int
	Canceled     bool
	// PageErrors is keyed by 0-based page index.
	PageErrors map[int]string
}
