package models

import (
	"strconv"
	"strings"
	"time"
)

// ListingRow is one row of a search result table.
type ListingRow struct {
	Page           int       `json:"page"`
	Index          int       `json:"index"`
	Title          string    `json:"title"`
	ArticleURL     string    `json:"article_url"`
	Authors        []string  `json:"authors"`
	AuthorURLs     []string  `json:"author_urls"`
	Source         string    `json:"source"`
	SourceURL      string    `json:"source_url"`
	ReleaseDate    string    `json:"release_date"`
	ReferenceCount int       `json:"reference_count"`
	ReferenceURL   string    `json:"reference_url"`
	DownloadCount  int       `json:"download_count"`
	DownloadURL    string    `json:"download_url"`
	ScrapedAt      time.Time `json:"scraped_at"`
}

// ListingHeader is the column set of a listing export.
var ListingHeader = []string{
	"page", "index", "title", "article_url", "authors", "author_urls",
	"source", "source_url", "release_date", "reference_count", "reference_url",
	"download_count", "download_url", "scraped_at",
}

// Key identifies the row within one run.
func (r *ListingRow) Key() string {
	if r.ArticleURL != "" {
		return r.ArticleURL
	}
	return r.Title + "\x00" + r.Source
}

// Strings renders the row in ListingHeader order.
func (r *ListingRow) Strings() []string {
	scrapedAt := ""
	if !r.ScrapedAt.IsZero() {
		scrapedAt = r.ScrapedAt.Format(time.RFC3339)
	}
	return []string{
		strconv.Itoa(r.Page + 1),
		strconv.Itoa(r.Index + 1),
		r.Title,
		r.ArticleURL,
		strings.Join(r.Authors, ","),
		strings.Join(r.AuthorURLs, ","),
		r.Source,
		r.SourceURL,
		r.ReleaseDate,
		strconv.Itoa(r.ReferenceCount),
		r.ReferenceURL,
		strconv.Itoa(r.DownloadCount),
		r.DownloadURL,
		scrapedAt,
	}
}
