package scraper

import "fmt"

// CSS selectors for the pages the workflow visits.
const (
	SelectorAdvancedSearchLink = `a#highSearch`
	SelectorTitleInput         = `input[data-tipid="gradetxt-1"]`
	SelectorSourceInput        = `input[data-tipid="gradetxt-3"]`
	SelectorSearchButton       = `input[class="btn-search"]`
	SelectorTopicInput         = `input#txt_SearchText`

	SelectorResultGrid      = `#gridTable`
	SelectorFirstResultLink = `#gridTable > table > tbody > tr > td.name > a`
	SelectorResultRows      = `#gridTable > table > tbody > tr`
	SelectorResultBody      = `#gridTable > table > tbody`

	SelectorDetailMarker = `#authorpart`
	SelectorAuthorSpans  = `#authorpart > span`
	SelectorReleaseDate  = `div.top-first > div.top-tip > span > a:nth-child(2)`

	SelectorPageSizeToggle = `#perPageDiv > div`
	SelectorTotalCount     = `#countPageDiv > span.pagerTitleCell > em`
	SelectorPageMark       = `#countPageDiv > span.countPageMark`
	SelectorNextPage       = `#PageNext`
)

// SameTabWindowName is the window name the advanced-search link targets.
const SameTabWindowName = "highsearch"

// pageSizeOption selects the index'th entry of the rows-per-page menu.
func pageSizeOption(index int) string {
	return fmt.Sprintf(`#perPageDiv > ul > li:nth-child(%d)`, index+1)
}
