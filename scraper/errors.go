package scraper

import (
	"context"
	"errors"
	"fmt"

	"github.com/aluiziolira/cnki-crawler/browser"
)

// ErrNavigationTimeout indicates an expected page state never appeared.
type ErrNavigationTimeout struct {
	Step string
	Err  error
}

func (e ErrNavigationTimeout) Error() string {
	return fmt.Errorf("navigation_timeout: %s: %w", e.Step, e.Err).Error()
}

func (e ErrNavigationTimeout) Unwrap() error {
	return e.Err
}

// ErrNoResults indicates the result grid rendered without any rows.
type ErrNoResults struct {
	Err error
}

func (e ErrNoResults) Error() string {
	return fmt.Errorf("no_results: %w", e.Err).Error()
}

func (e ErrNoResults) Unwrap() error {
	return e.Err
}

// ErrExtraction indicates a detail field could not be read.
type ErrExtraction struct {
	Field string
	Err   error
}

func (e ErrExtraction) Error() string {
	return fmt.Errorf("extraction: %s: %w", e.Field, e.Err).Error()
}

func (e ErrExtraction) Unwrap() error {
	return e.Err
}

// ErrInvalidRecord indicates an input record lacks the fields the search needs.
type ErrInvalidRecord struct {
	Err error
}

func (e ErrInvalidRecord) Error() string {
	return fmt.Errorf("invalid_record: %w", e.Err).Error()
}

func (e ErrInvalidRecord) Unwrap() error {
	return e.Err
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	var unsupported browser.ErrPlatformUnsupported
	if errors.As(err, &unsupported) {
		return "platform_unsupported"
	}
	var launch browser.ErrSessionLaunch
	if errors.As(err, &launch) {
		return "session_launch"
	}
	var noResults ErrNoResults
	if errors.As(err, &noResults) {
		return "no_results"
	}
	var extraction ErrExtraction
	if errors.As(err, &extraction) {
		return "extraction"
	}
	var navigation ErrNavigationTimeout
	if errors.As(err, &navigation) {
		return "navigation_timeout"
	}
	var wait browser.ErrWaitTimeout
	if errors.As(err, &wait) {
		return "navigation_timeout"
	}
	var invalid ErrInvalidRecord
	if errors.As(err, &invalid) {
		return "invalid_record"
	}
	return "other"
}

// classifyError maps a failed page step onto the crawler's error taxonomy.
// Cancellation passes through unchanged.
func classifyError(ctx context.Context, step string, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var wait browser.ErrWaitTimeout
	if errors.As(err, &wait) || errors.Is(err, context.DeadlineExceeded) {
		return ErrNavigationTimeout{Step: step, Err: err}
	}
	return fmt.Errorf("%s: %w", step, err)
}
