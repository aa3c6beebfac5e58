package shared

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// IsTransient classifies errors that are worth a single retry: timeouts,
// connection resets and refusals, and deadline expiry. Classification is
// by error type, not message text, so callers do not have to string-match
// "network" or "timeout".
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	return IsSQLiteConflictError(err)
}

// RetryOnce runs fn, and runs it one more time if the first attempt failed
// with a transient error. The context is checked between attempts so a
// cancelled caller does not trigger the retry.
func RetryOnce(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || !IsTransient(err) {
		return err
	}
	if ctx.Err() != nil {
		return err
	}
	return fn()
}
