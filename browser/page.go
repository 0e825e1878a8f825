package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

// keyBudget is the time allowed per keystroke on top of the typing delay.
const keyBudget = 250 * time.Millisecond

// Page is the typed DOM-query layer over the session's tab. Calls are
// serialised so at most one action or navigation touches the tab at a time.
type Page struct {
	ctx    context.Context
	net    *networkTracker
	opts   Options
	logger *slog.Logger

	mu sync.Mutex
}

func newPage(tabCtx context.Context, net *networkTracker, opts Options, logger *slog.Logger) *Page {
	return &Page{
		ctx:    tabCtx,
		net:    net,
		opts:   opts,
		logger: logger,
	}
}

// Navigate loads url and waits until the network has been quiet for the
// configured idle window.
func (p *Page) Navigate(ctx context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	timeout := p.opts.NavigationTimeout
	if err := p.run(ctx, timeout, chromedp.Navigate(url)); err != nil {
		return p.waitErr(ctx, url, timeout, err)
	}

	idleCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := p.net.waitIdle(idleCtx, p.opts.NetworkIdle); err != nil {
		return p.waitErr(ctx, "network idle", timeout, err)
	}
	p.logger.Debug("navigated", slog.String("url", url))
	return nil
}

// WaitPresent blocks until selector matches a node. A zero timeout uses the
// session's wait timeout.
func (p *Page) WaitPresent(ctx context.Context, selector string, timeout time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if timeout <= 0 {
		timeout = p.opts.WaitTimeout
	}
	err := p.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery))
	return p.waitErr(ctx, selector, timeout, err)
}

// Count returns how many nodes currently match selector.
func (p *Page) Count(ctx context.Context, selector string) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var n int
	expr := fmt.Sprintf(`document.querySelectorAll(%s).length`, jsString(selector))
	if err := p.run(ctx, p.opts.WaitTimeout, chromedp.Evaluate(expr, &n)); err != nil {
		return 0, p.waitErr(ctx, selector, p.opts.WaitTimeout, err)
	}
	return n, nil
}

// Click performs a synthetic mouse click on selector.
func (p *Page) Click(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.run(ctx, p.opts.WaitTimeout, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
	return p.waitErr(ctx, selector, p.opts.WaitTimeout, err)
}

// ClickInPage calls element.click() inside the page's own script context.
// Some result links ignore synthetic mouse events but honour this.
func (p *Page) ClickInPage(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var clicked bool
	expr := fmt.Sprintf(`(() => {
		const el = document.querySelector(%s);
		if (!el) return false;
		el.click();
		return true;
	})()`, jsString(selector))
	if err := p.run(ctx, p.opts.WaitTimeout, chromedp.Evaluate(expr, &clicked)); err != nil {
		return p.waitErr(ctx, selector, p.opts.WaitTimeout, err)
	}
	if !clicked {
		return ErrElementNotFound{Selector: selector}
	}
	return nil
}

// Type focuses selector and types text one rune at a time, pausing perKey
// between keystrokes.
func (p *Page) Type(ctx context.Context, selector, text string, perKey time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	actions := []chromedp.Action{
		chromedp.WaitReady(selector, chromedp.ByQuery),
		chromedp.Focus(selector, chromedp.ByQuery),
	}
	for _, r := range text {
		actions = append(actions, chromedp.SendKeys(selector, string(r), chromedp.ByQuery))
		if perKey > 0 {
			actions = append(actions, chromedp.Sleep(perKey))
		}
	}

	timeout := p.opts.WaitTimeout + time.Duration(utf8.RuneCountInString(text))*(perKey+keyBudget)
	err := p.run(ctx, timeout, actions...)
	return p.waitErr(ctx, selector, timeout, err)
}

// PressEnter sends the Enter key to selector.
func (p *Page) PressEnter(ctx context.Context, selector string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.run(ctx, p.opts.WaitTimeout, chromedp.SendKeys(selector, kb.Enter, chromedp.ByQuery))
	return p.waitErr(ctx, selector, p.opts.WaitTimeout, err)
}

// SetAttribute sets an attribute on the first node matching selector.
func (p *Page) SetAttribute(ctx context.Context, selector, name, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.run(ctx, p.opts.WaitTimeout, chromedp.SetAttributeValue(selector, name, value, chromedp.ByQuery))
	return p.waitErr(ctx, selector, p.opts.WaitTimeout, err)
}

// SetWindowName assigns window.name so targeted links and window.open calls
// reuse this tab.
func (p *Page) SetWindowName(ctx context.Context, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	expr := fmt.Sprintf(`window.name = %s`, jsString(name))
	if err := p.run(ctx, p.opts.WaitTimeout, chromedp.Evaluate(expr, nil)); err != nil {
		return p.waitErr(ctx, "window.name", p.opts.WaitTimeout, err)
	}
	return nil
}

// Text returns the rendered text of the first node matching selector.
func (p *Page) Text(ctx context.Context, selector string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var text string
	if err := p.run(ctx, p.opts.WaitTimeout, chromedp.Text(selector, &text, chromedp.ByQuery)); err != nil {
		return "", p.waitErr(ctx, selector, p.opts.WaitTimeout, err)
	}
	return text, nil
}

// TextAll returns the rendered text of every node matching selector.
func (p *Page) TextAll(ctx context.Context, selector string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var texts []string
	expr := fmt.Sprintf(`Array.from(document.querySelectorAll(%s), el => el.innerText)`, jsString(selector))
	if err := p.run(ctx, p.opts.WaitTimeout, chromedp.Evaluate(expr, &texts)); err != nil {
		return nil, p.waitErr(ctx, selector, p.opts.WaitTimeout, err)
	}
	return texts, nil
}

// OuterHTML returns the serialised markup of the first node matching selector.
func (p *Page) OuterHTML(ctx context.Context, selector string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var html string
	if err := p.run(ctx, p.opts.WaitTimeout, chromedp.OuterHTML(selector, &html, chromedp.ByQuery)); err != nil {
		return "", p.waitErr(ctx, selector, p.opts.WaitTimeout, err)
	}
	return html, nil
}

// Location returns the current document URL.
func (p *Page) Location(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var url string
	if err := p.run(ctx, p.opts.WaitTimeout, chromedp.Location(&url)); err != nil {
		return "", p.waitErr(ctx, "location", p.opts.WaitTimeout, err)
	}
	return url, nil
}

// Sleep pauses for d or until ctx is done.
func (p *Page) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// run executes actions on the tab, bounded by both ctx and timeout. The tab
// context carries the CDP target, so ctx only contributes cancellation.
func (p *Page) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, timeout)
		defer cancelTimeout()
	}
	return chromedp.Run(runCtx, actions...)
}

func (p *Page) waitErr(ctx context.Context, selector string, timeout time.Duration, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrWaitTimeout{Selector: selector, Timeout: timeout, Err: err}
	}
	return fmt.Errorf("%s: %w", selector, err)
}

func jsString(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return `""`
	}
	return string(b)
}
