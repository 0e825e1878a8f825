package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/aluiziolira/cnki-crawler/browser"
)

const fakeListingURL = "https://kns.cnki.net/kns8s/defaultresult/index"

type fakeArticle struct {
	authors     []string
	releaseDate string
}

// fakeSite scripts what the fake page renders.
type fakeSite struct {
	// articles are found by the title typed into the advanced search form.
	articles map[string]fakeArticle
	// noGrid makes result pages render nothing at all.
	noGrid bool
	// listing holds one tbody snapshot per topic result page.
	listing     []string
	totalCount  string
	brokenPages map[int]bool
	// stuckPager stops the next-page control from advancing.
	stuckPager bool
	// pagesBeforeResize is the page count the pager shows before a page
	// size is picked; lateResizeReads delays the re-render by that many
	// pager reads.
	pagesBeforeResize int
	lateResizeReads   int
}

type fakeState int

const (
	stateBlank fakeState = iota
	stateHome
	stateAdvanced
	stateResults
	stateListing
	stateDetail
)

// fakePage is a scripted stand-in for the browser tab.
type fakePage struct {
	site *fakeSite

	mu         sync.Mutex
	state      fakeState
	windowName string
	typed      map[string]string
	keyDelays  map[string]time.Duration
	attrs      map[string]string
	article    *fakeArticle
	pageIndex  int
	calls      []string
	navigated  int
	onNavigate func(n int)
	resized    bool
	staleReads int
}

func newFakePage(site *fakeSite) *fakePage {
	return &fakePage{
		site:      site,
		typed:     make(map[string]string),
		keyDelays: make(map[string]time.Duration),
		attrs:     make(map[string]string),
	}
}

func (p *fakePage) record(format string, args ...any) {
	p.calls = append(p.calls, fmt.Sprintf(format, args...))
}

func (p *fakePage) present(selector string) bool {
	switch p.state {
	case stateHome:
		return selector == SelectorAdvancedSearchLink || selector == SelectorTopicInput
	case stateAdvanced:
		return selector == SelectorTitleInput || selector == SelectorSourceInput || selector == SelectorSearchButton
	case stateResults:
		if p.site.noGrid {
			return false
		}
		if selector == SelectorResultGrid {
			return true
		}
		if p.article == nil {
			return false
		}
		return selector == SelectorFirstResultLink || selector == SelectorResultRows
	case stateListing:
		if len(p.site.listing) == 0 {
			return selector == SelectorResultGrid
		}
		switch selector {
		case SelectorResultGrid, SelectorResultRows, SelectorResultBody, SelectorFirstResultLink,
			SelectorPageSizeToggle, SelectorTotalCount, SelectorPageMark, SelectorNextPage:
			return true
		}
		return strings.HasPrefix(selector, "#perPageDiv > ul > li")
	case stateDetail:
		switch selector {
		case SelectorDetailMarker:
			return true
		case SelectorAuthorSpans:
			return len(p.article.authors) > 0
		case SelectorReleaseDate:
			return p.article.releaseDate != ""
		}
	}
	return false
}

func (p *fakePage) notPresent(selector string) error {
	return browser.ErrWaitTimeout{Selector: selector, Timeout: time.Second, Err: context.DeadlineExceeded}
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	p.navigated++
	n := p.navigated
	hook := p.onNavigate
	p.mu.Unlock()
	if hook != nil {
		hook(n)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("navigate %s", url)
	p.state = stateHome
	p.typed = make(map[string]string)
	p.attrs = make(map[string]string)
	p.article = nil
	p.pageIndex = 0
	p.resized = false
	return nil
}

func (p *fakePage) SetWindowName(ctx context.Context, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("window.name %s", name)
	p.windowName = name
	return nil
}

func (p *fakePage) WaitPresent(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.present(selector) {
		return p.notPresent(selector)
	}
	return nil
}

func (p *fakePage) Count(ctx context.Context, selector string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.present(selector) {
		return 1, nil
	}
	return 0, nil
}

func (p *fakePage) Click(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.present(selector) {
		return p.notPresent(selector)
	}
	p.record("click %s", selector)

	switch selector {
	case SelectorAdvancedSearchLink:
		// Without the window name the form opens in another tab.
		if p.windowName == SameTabWindowName {
			p.state = stateAdvanced
		}
	case SelectorSearchButton:
		if p.attrs[SelectorSearchButton+"@target"] != "_self" {
			return nil
		}
		p.state = stateResults
		if article, ok := p.site.articles[p.typed[SelectorTitleInput]]; ok {
			p.article = &article
		}
	case SelectorNextPage:
		if !p.site.stuckPager && p.pageIndex < len(p.site.listing)-1 {
			p.pageIndex++
		}
	default:
		if strings.HasPrefix(selector, "#perPageDiv > ul > li") {
			p.resized = true
			p.staleReads = p.site.lateResizeReads
		}
	}
	return nil
}

func (p *fakePage) ClickInPage(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.present(selector) {
		return browser.ErrElementNotFound{Selector: selector}
	}
	p.record("script click %s", selector)
	if selector == SelectorFirstResultLink && p.state == stateResults &&
		p.attrs[SelectorFirstResultLink+"@target"] == "_self" {
		p.state = stateDetail
	}
	return nil
}

func (p *fakePage) Type(ctx context.Context, selector, text string, perKey time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.present(selector) {
		return p.notPresent(selector)
	}
	p.record("type %s %s", selector, text)
	p.typed[selector] += text
	p.keyDelays[selector] = perKey
	return nil
}

func (p *fakePage) PressEnter(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.present(selector) {
		return p.notPresent(selector)
	}
	p.record("enter %s", selector)
	if selector == SelectorTopicInput {
		p.state = stateListing
		p.pageIndex = 0
		p.resized = false
	}
	return nil
}

func (p *fakePage) SetAttribute(ctx context.Context, selector, name, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.present(selector) {
		return p.notPresent(selector)
	}
	p.attrs[selector+"@"+name] = value
	return nil
}

func (p *fakePage) Text(ctx context.Context, selector string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.present(selector) {
		return "", p.notPresent(selector)
	}
	switch selector {
	case SelectorReleaseDate:
		return p.article.releaseDate, nil
	case SelectorTotalCount:
		return p.site.totalCount, nil
	case SelectorPageMark:
		pages := len(p.site.listing)
		if p.site.pagesBeforeResize > 0 {
			if !p.resized {
				pages = p.site.pagesBeforeResize
			} else if p.staleReads > 0 {
				p.staleReads--
				pages = p.site.pagesBeforeResize
			}
		}
		return fmt.Sprintf("%d/%d", p.pageIndex+1, pages), nil
	}
	return "", nil
}

func (p *fakePage) TextAll(ctx context.Context, selector string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if selector == SelectorAuthorSpans && p.state == stateDetail {
		return append([]string(nil), p.article.authors...), nil
	}
	return nil, nil
}

func (p *fakePage) OuterHTML(ctx context.Context, selector string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.present(selector) {
		return "", p.notPresent(selector)
	}
	if p.site.brokenPages[p.pageIndex] {
		return "", errors.New("node detached")
	}
	return p.site.listing[p.pageIndex], nil
}

func (p *fakePage) Location(ctx context.Context) (string, error) {
	return fakeListingURL, nil
}

func (p *fakePage) Sleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

// fakeOpener hands out one fakePage and counts session lifecycle calls.
type fakeOpener struct {
	page    *fakePage
	err     error
	opened  int
	closed  int
	closeMu sync.Mutex
}

func (o *fakeOpener) Open(ctx context.Context) (Page, io.Closer, error) {
	o.opened++
	if o.err != nil {
		return nil, nil, o.err
	}
	return o.page, o, nil
}

func (o *fakeOpener) Close() error {
	o.closeMu.Lock()
	defer o.closeMu.Unlock()
	o.closed++
	return nil
}

func listingPage(page, rows int) string {
	var b strings.Builder
	b.WriteString("<tbody>")
	for i := 0; i < rows; i++ {
		id := page*100 + i
		fmt.Fprintf(&b, `<tr><td class="name"><a href="/kcms2/article/abstract?v=%d">Article %d</a></td>`, id, id)
		fmt.Fprintf(&b, `<td class="author"><a href="/kcms2/author?v=%d">Author %d</a></td>`, id, id)
		b.WriteString(`<td class="source">Journal</td><td class="date">2022-01-01</td>`)
		b.WriteString(`<td class="quote">1</td><td class="download">2</td></tr>`)
	}
	b.WriteString("</tbody>")
	return b.String()
}
