package parser

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/aluiziolira/cnki-crawler/models"
	"github.com/gocolly/colly/v2"
)

// ExtractListingRows parses an outerHTML snapshot of the result table body
// rendered at pageURL and returns one row per <tr>. Relative links are
// resolved against pageURL.
func ExtractListingRows(pageURL, tbodyHTML string, page int) ([]*models.ListingRow, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	// A bare <tbody> outside a <table> is dropped by the HTML parser.
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<table>" + tbodyHTML + "</table>"))
	if err != nil {
		return nil, fmt.Errorf("parse listing snapshot: %w", err)
	}

	resp := &colly.Response{Request: &colly.Request{URL: base}}
	scrapedAt := time.Now()

	var rows []*models.ListingRow
	doc.Find("tr").Each(func(i int, s *goquery.Selection) {
		if s.Find("td").Length() == 0 {
			return
		}
		e := colly.NewHTMLElementFromSelectionNode(resp, s, s.Get(0), i)
		row := extractRow(e)
		row.Page = page
		row.Index = len(rows)
		row.ScrapedAt = scrapedAt
		rows = append(rows, row)
	})
	return rows, nil
}

func extractRow(e *colly.HTMLElement) *models.ListingRow {
	row := &models.ListingRow{
		Title:        collapse(e.ChildText("td.name a")),
		ArticleURL:   absolute(e, e.ChildAttr("td.name a", "href")),
		Source:       collapse(e.ChildText("td.source")),
		SourceURL:    absolute(e, e.ChildAttr("td.source a", "href")),
		ReleaseDate:  collapse(e.ChildText("td.date")),
		ReferenceURL: absolute(e, e.ChildAttr("td.quote a", "href")),
		DownloadURL:  absolute(e, e.ChildAttr("td.download a", "href")),
	}

	e.ForEach("td.author a", func(_ int, a *colly.HTMLElement) {
		if name := collapse(a.Text); name != "" {
			row.Authors = append(row.Authors, name)
			row.AuthorURLs = append(row.AuthorURLs, absolute(e, a.Attr("href")))
		}
	})
	if len(row.Authors) == 0 {
		for _, name := range strings.FieldsFunc(e.ChildText("td.author"), isAuthorSeparator) {
			if name = collapse(name); name != "" {
				row.Authors = append(row.Authors, name)
			}
		}
	}

	// Unparseable counts stay zero; the link is still kept.
	row.ReferenceCount, _ = ParseCount(e.ChildText("td.quote"))
	row.DownloadCount, _ = ParseCount(e.ChildText("td.download"))
	return row
}

func absolute(e *colly.HTMLElement, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(strings.ToLower(href), "javascript:") {
		return ""
	}
	return e.Request.AbsoluteURL(href)
}

func collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func isAuthorSeparator(r rune) bool {
	return r == ';' || r == '；' || r == ',' || r == '，'
}
