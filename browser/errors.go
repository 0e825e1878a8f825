package browser

import (
	"fmt"
	"time"
)

// ErrPlatformUnsupported indicates no known browser install location for the host OS.
type ErrPlatformUnsupported struct {
	GOOS string
}

func (e ErrPlatformUnsupported) Error() string {
	return fmt.Sprintf("platform_unsupported: %s is not supported", e.GOOS)
}

// ErrSessionLaunch indicates the browser process or its first tab could not be started.
type ErrSessionLaunch struct {
	Err error
}

func (e ErrSessionLaunch) Error() string {
	return fmt.Errorf("session_launch: %w", e.Err).Error()
}

func (e ErrSessionLaunch) Unwrap() error {
	return e.Err
}

// ErrWaitTimeout indicates a selector did not appear within the wait budget.
type ErrWaitTimeout struct {
	Selector string
	Timeout  time.Duration
	Err      error
}

func (e ErrWaitTimeout) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("wait_timeout: %q not present after %s", e.Selector, e.Timeout)
	}
	return fmt.Errorf("wait_timeout: %q not present after %s: %w", e.Selector, e.Timeout, e.Err).Error()
}

func (e ErrWaitTimeout) Unwrap() error {
	return e.Err
}

// ErrElementNotFound indicates a query matched nothing at the time it ran.
type ErrElementNotFound struct {
	Selector string
}

func (e ErrElementNotFound) Error() string {
	return fmt.Sprintf("element_not_found: %q", e.Selector)
}
