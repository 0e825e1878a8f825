package scraper

import (
	"context"
	"io"
	"time"

	"github.com/aluiziolira/cnki-crawler/browser"
)

// Page is the subset of browser.Page the workflow drives.
type Page interface {
	Navigate(ctx context.Context, url string) error
	SetWindowName(ctx context.Context, name string) error
	WaitPresent(ctx context.Context, selector string, timeout time.Duration) error
	Count(ctx context.Context, selector string) (int, error)
	Click(ctx context.Context, selector string) error
	ClickInPage(ctx context.Context, selector string) error
	Type(ctx context.Context, selector, text string, perKey time.Duration) error
	PressEnter(ctx context.Context, selector string) error
	SetAttribute(ctx context.Context, selector, name, value string) error
	Text(ctx context.Context, selector string) (string, error)
	TextAll(ctx context.Context, selector string) ([]string, error)
	OuterHTML(ctx context.Context, selector string) (string, error)
	Location(ctx context.Context) (string, error)
	Sleep(ctx context.Context, d time.Duration) error
}

var _ Page = (*browser.Page)(nil)

// Opener starts the browser session a run drives. The returned closer shuts
// the session down.
type Opener interface {
	Open(ctx context.Context) (Page, io.Closer, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context) (Page, io.Closer, error)

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context) (Page, io.Closer, error) {
	return f(ctx)
}

// BrowserOpener opens a real Chrome session with opts.
func BrowserOpener(opts browser.Options) Opener {
	return OpenerFunc(func(ctx context.Context) (Page, io.Closer, error) {
		session, err := browser.Open(ctx, opts)
		if err != nil {
			return nil, nil, err
		}
		return session.FirstPage(), session, nil
	})
}
