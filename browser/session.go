// Package browser owns the Chrome process and the single tab the crawler drives.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	goruntime "runtime"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/inspector"
	cdplog "github.com/chromedp/cdproto/log"
	"github.com/chromedp/cdproto/network"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// Kinds passed to Options.OnPageError.
const (
	ErrorKindRuntime    = "runtime"
	ErrorKindPageScript = "pageerror"
)

// Options configures a browser session.
type Options struct {
	ExecPath          string
	Headless          bool
	UserAgent         string
	NavigationTimeout time.Duration
	WaitTimeout       time.Duration
	NetworkIdle       time.Duration
	Logger            *slog.Logger

	// OnPageError observes runtime and page-script errors. It runs on the
	// event loop and must not block.
	OnPageError func(kind, message string)
}

func (o Options) withDefaults() Options {
	if o.NavigationTimeout <= 0 {
		o.NavigationTimeout = 60 * time.Second
	}
	if o.WaitTimeout <= 0 {
		o.WaitTimeout = 30 * time.Second
	}
	if o.NetworkIdle < 0 {
		o.NetworkIdle = 0
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Session is one Chrome process with one page.
type Session struct {
	opts   Options
	logger *slog.Logger

	tabCtx      context.Context
	tabCancel   context.CancelFunc
	allocCancel context.CancelFunc

	net  *networkTracker
	page *Page

	closeOnce sync.Once
	closeErr  error
}

// Open launches Chrome and prepares its first tab. When opts.ExecPath is
// empty the install location is resolved from the host platform.
func Open(ctx context.Context, opts Options) (*Session, error) {
	opts = opts.withDefaults()

	execPath := opts.ExecPath
	if execPath == "" {
		resolved, err := ResolveExecutable(goruntime.GOOS, goruntime.GOARCH, os.Getenv)
		if err != nil {
			return nil, err
		}
		execPath = resolved
	}
	if _, err := os.Stat(execPath); err != nil {
		return nil, ErrSessionLaunch{Err: fmt.Errorf("browser executable %q: %w", execPath, err)}
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(execPath),
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if !opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("start-maximized", true))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	logger := opts.Logger.With(slog.String("component", "browser"))
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...))
		}),
		chromedp.WithErrorf(func(format string, args ...any) {
			logger.Debug("cdp error", slog.String("detail", fmt.Sprintf(format, args...)))
		}),
	)

	s := &Session{
		opts:        opts,
		logger:      logger,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		allocCancel: allocCancel,
		net:         newNetworkTracker(),
	}

	if err := chromedp.Run(tabCtx); err != nil {
		s.release()
		return nil, ErrSessionLaunch{Err: err}
	}

	s.listen()

	if err := chromedp.Run(tabCtx,
		network.Enable(),
		cdpruntime.Enable(),
		cdplog.Enable(),
		fetch.Enable(),
		emulation.ClearDeviceMetricsOverride(),
	); err != nil {
		s.release()
		return nil, ErrSessionLaunch{Err: fmt.Errorf("configure page: %w", err)}
	}

	s.page = newPage(tabCtx, s.net, opts, logger)
	logger.Info("browser session opened",
		slog.String("exec_path", execPath),
		slog.Bool("headless", opts.Headless),
	)
	return s, nil
}

// FirstPage returns the session's only page.
func (s *Session) FirstPage() *Page {
	return s.page
}

// Close shuts the browser down. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		err := chromedp.Cancel(s.tabCtx)
		if err != nil && !errors.Is(err, context.Canceled) {
			s.closeErr = fmt.Errorf("close browser: %w", err)
		}
		s.release()
		s.logger.Info("browser session closed")
	})
	return s.closeErr
}

func (s *Session) release() {
	s.tabCancel()
	s.allocCancel()
}

func (s *Session) listen() {
	chromedp.ListenTarget(s.tabCtx, func(ev any) {
		switch ev := ev.(type) {
		case *fetch.EventRequestPaused:
			go s.continueRequest(ev)
		case *network.EventRequestWillBeSent:
			s.net.started(ev.RequestID)
		case *network.EventLoadingFinished:
			s.net.finished(ev.RequestID)
		case *network.EventLoadingFailed:
			s.net.finished(ev.RequestID)
		case *cdpruntime.EventExceptionThrown:
			s.reportPageError(ErrorKindPageScript, exceptionText(ev.ExceptionDetails))
		case *cdplog.EventEntryAdded:
			if ev.Entry != nil && ev.Entry.Level == cdplog.LevelError {
				s.reportPageError(ErrorKindRuntime, ev.Entry.Text)
			}
		case *inspector.EventTargetCrashed:
			s.reportPageError(ErrorKindRuntime, "target crashed")
		}
	})
}

// continueRequest lets every intercepted request through unchanged.
func (s *Session) continueRequest(ev *fetch.EventRequestPaused) {
	c := chromedp.FromContext(s.tabCtx)
	if c == nil || c.Target == nil {
		return
	}
	execCtx := cdp.WithExecutor(s.tabCtx, c.Target)
	if err := fetch.ContinueRequest(ev.RequestID).Do(execCtx); err != nil && s.tabCtx.Err() == nil {
		url := ""
		if ev.Request != nil {
			url = ev.Request.URL
		}
		s.logger.Debug("continue request failed", slog.String("url", url), slog.Any("error", err))
	}
}

func (s *Session) reportPageError(kind, message string) {
	s.logger.Warn("page error", slog.String("kind", kind), slog.String("message", message))
	if s.opts.OnPageError != nil {
		s.opts.OnPageError(kind, message)
	}
}

func exceptionText(details *cdpruntime.ExceptionDetails) string {
	if details == nil {
		return ""
	}
	if details.Exception != nil && details.Exception.Description != "" {
		return details.Exception.Description
	}
	return details.Text
}

// networkTracker counts in-flight requests to detect network quiescence.
type networkTracker struct {
	mu           sync.Mutex
	inflight     map[network.RequestID]struct{}
	lastActivity time.Time
}

func newNetworkTracker() *networkTracker {
	return &networkTracker{
		inflight:     make(map[network.RequestID]struct{}),
		lastActivity: time.Now(),
	}
}

func (t *networkTracker) started(id network.RequestID) {
	t.mu.Lock()
	t.inflight[id] = struct{}{}
	t.lastActivity = time.Now()
	t.mu.Unlock()
}

func (t *networkTracker) finished(id network.RequestID) {
	t.mu.Lock()
	delete(t.inflight, id)
	t.lastActivity = time.Now()
	t.mu.Unlock()
}

func (t *networkTracker) snapshot() (int, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight), time.Since(t.lastActivity)
}

// waitIdle returns once no request has been in flight for quiet.
func (t *networkTracker) waitIdle(ctx context.Context, quiet time.Duration) error {
	interval := quiet / 5
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if n, since := t.snapshot(); n == 0 && since >= quiet {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
