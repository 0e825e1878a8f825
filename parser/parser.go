package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aluiziolira/cnki-crawler/models"
)

var (
	digitRun = regexp.MustCompile(`\d+`)
	nonDigit = regexp.MustCompile(`[^\d]`)
)

// footnoteTrim covers separators left behind once a "1,2" style marker is removed.
const footnoteTrim = " \t\r\n,，;；、*"

// ValidateRecord ensures the record carries the fields the detail lookup types.
func ValidateRecord(r *models.Record) error {
	if r == nil {
		return fmt.Errorf("record is nil")
	}
	if r.Title() == "" {
		return fmt.Errorf("record missing %s", models.ColumnTitle)
	}
	if r.Source() == "" {
		return fmt.Errorf("record missing %s for %s", models.ColumnSource, r.Title())
	}
	return nil
}

// ValidateListingRow ensures a listing row has a title.
func ValidateListingRow(row *models.ListingRow) error {
	if row == nil {
		return fmt.Errorf("row is nil")
	}
	if strings.TrimSpace(row.Title) == "" {
		return fmt.Errorf("row %d on page %d missing title", row.Index+1, row.Page+1)
	}
	return nil
}

// CleanAuthorName removes the footnote marker the detail page renders inline
// with an author's name, e.g. "张三1,2" becomes "张三".
func CleanAuthorName(text string) string {
	cleaned := digitRun.ReplaceAllString(text, "")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	return strings.Trim(cleaned, footnoteTrim)
}

// BuildDetailMetadata cleans raw author texts and assembles the metadata.
// Entries that are empty once cleaned are not authors and are skipped.
func BuildDetailMetadata(authorTexts []string, releaseDate string) models.DetailMetadata {
	authors := make([]string, 0, len(authorTexts))
	for _, text := range authorTexts {
		if name := CleanAuthorName(text); name != "" {
			authors = append(authors, name)
		}
	}
	return models.DetailMetadata{
		Authors:     authors,
		AuthorCount: len(authors),
		ReleaseDate: strings.TrimSpace(releaseDate),
	}
}

// ParsePageMark parses the pager text "<current>/<total>".
func ParsePageMark(text string) (current, total int, err error) {
	parts := strings.Split(strings.TrimSpace(text), "/")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("page mark %q: want <current>/<total>", text)
	}
	current, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("page mark %q current: %w", text, err)
	}
	total, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("page mark %q total: %w", text, err)
	}
	if total < 0 || current < 0 {
		return 0, 0, fmt.Errorf("page mark %q: negative value", text)
	}
	return current, total, nil
}

// ParseCount reads a rendered count such as "12,345" or " 7 ".
// An empty cell counts as zero.
func ParseCount(text string) (int, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil
	}
	digits := nonDigit.ReplaceAllString(text, "")
	if digits == "" {
		return 0, fmt.Errorf("count %q has no digits", text)
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("count %q: %w", text, err)
	}
	return n, nil
}
