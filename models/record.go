// Package models defines data structures for the crawler.
package models

import (
	"strconv"
	"strings"
)

// Column names the workflow reads from and adds to a record.
const (
	ColumnTitle       = "title"
	ColumnSource      = "source"
	ColumnAuthors     = "authors"
	ColumnAuthorCount = "author_count"
	ColumnReleaseDate = "release_date"
)

// EnrichmentColumns lists the columns added to an enriched record, in output order.
var EnrichmentColumns = []string{ColumnAuthors, ColumnAuthorCount, ColumnReleaseDate}

// Record is one row of the input sheet. Enrichment stays nil until the detail
// lookup for the record has fully succeeded.
type Record struct {
	Columns    []string
	Values     map[string]string
	Enrichment *DetailMetadata
}

// NewRecord zips a header with one row of cell values. Short rows are padded
// with empty values; cells beyond the header are dropped.
func NewRecord(columns []string, cells []string) *Record {
	r := &Record{
		Columns: make([]string, 0, len(columns)),
		Values:  make(map[string]string, len(columns)),
	}
	for i, col := range columns {
		col = strings.TrimSpace(col)
		if col == "" {
			continue
		}
		if _, dup := r.Values[col]; dup {
			continue
		}
		value := ""
		if i < len(cells) {
			value = cells[i]
		}
		r.Columns = append(r.Columns, col)
		r.Values[col] = value
	}
	return r
}

// Get returns the raw value of column, or "" when absent.
func (r *Record) Get(column string) string {
	if r == nil {
		return ""
	}
	return r.Values[column]
}

// Title returns the title used in the advanced search form.
func (r *Record) Title() string {
	return strings.TrimSpace(r.Get(ColumnTitle))
}

// Source returns the publication source used in the advanced search form.
func (r *Record) Source() string {
	return strings.TrimSpace(r.Get(ColumnSource))
}

// Enrich attaches detail metadata to the record.
func (r *Record) Enrich(meta DetailMetadata) {
	m := meta
	m.Authors = append([]string(nil), meta.Authors...)
	r.Enrichment = &m
}

// Enriched reports whether detail metadata has been attached.
func (r *Record) Enriched() bool {
	return r != nil && r.Enrichment != nil
}

// Clone returns a deep copy of the record.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := &Record{
		Columns: append([]string(nil), r.Columns...),
		Values:  make(map[string]string, len(r.Values)),
	}
	for k, v := range r.Values {
		out.Values[k] = v
	}
	if r.Enrichment != nil {
		out.Enrich(*r.Enrichment)
	}
	return out
}

// Value returns the output value of column, preferring enrichment fields.
func (r *Record) Value(column string) string {
	if r.Enrichment != nil {
		switch column {
		case ColumnAuthors:
			return r.Enrichment.AuthorsField()
		case ColumnAuthorCount:
			return strconv.Itoa(r.Enrichment.AuthorCount)
		case ColumnReleaseDate:
			return r.Enrichment.ReleaseDate
		}
	}
	return r.Values[column]
}

// Row renders the record against header.
func (r *Record) Row(header []string) []string {
	row := make([]string, len(header))
	for i, col := range header {
		row[i] = r.Value(col)
	}
	return row
}

// Header returns the union of all record columns in first-seen order,
// followed by the enrichment columns when any record carries them.
func Header(records []*Record) []string {
	seen := make(map[string]struct{})
	var header []string
	add := func(col string) {
		if _, ok := seen[col]; ok {
			return
		}
		seen[col] = struct{}{}
		header = append(header, col)
	}

	enriched := false
	for _, r := range records {
		if r == nil {
			continue
		}
		for _, col := range r.Columns {
			add(col)
		}
		if r.Enriched() {
			enriched = true
		}
	}
	if enriched {
		for _, col := range EnrichmentColumns {
			add(col)
		}
	}
	return header
}
