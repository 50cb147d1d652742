package feed

import (
	"context"
	"errors"
	"time"

	"github.com/lightningnetwork/lnd/clock"
)

// Defaults for RetryConfig.
const (
	DefaultBaseDelay = time.Second
	DefaultMaxDelay  = 30 * time.Second
)

// RetryableError wraps an error to indicate it should trigger a retry.
type RetryableError struct{ Err error }

// Retryable wraps an error as a RetryableError.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Err: err}
}

// Error returns the error message of the wrapped error.
func (e *RetryableError) Error() string { return e.Err.Error() }

// Unwrap returns the wrapped error.
func (e *RetryableError) Unwrap() error { return e.Err }

// IsRetryable checks if an error is wrapped with RetryableError.
func IsRetryable(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// RetryConfig controls reconnect backoff.
type RetryConfig struct {
	// Attempts bounds the number of tries. Zero retries forever.
	Attempts int `toml:"attempts" yaml:"attempts"`
	// BaseDelay is the wait before the first retry; it doubles per retry.
	BaseDelay time.Duration `toml:"base_delay" yaml:"base_delay"`
	// MaxDelay caps the wait between retries.
	MaxDelay time.Duration `toml:"max_delay" yaml:"max_delay"`
}

// SetDefaults fills zero delays.
func (c *RetryConfig) SetDefaults() {
	if c.BaseDelay == 0 {
		c.BaseDelay = DefaultBaseDelay
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = DefaultMaxDelay
	}
}

// Do calls fn until it succeeds, returns an error not wrapped with
// Retryable, ctx is done, or the attempts are spent. Waits are timed by clk
// and double from BaseDelay up to MaxDelay. The returned error is unwrapped
// from RetryableError.
func (c RetryConfig) Do(ctx context.Context, clk clock.Clock, fn func() error) error {
	delay := c.BaseDelay
	var lastErr error

	for i := 0; c.Attempts == 0 || i < c.Attempts; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsRetryable(err) {
			return err
		}

		if c.Attempts != 0 && i == c.Attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clk.TickAfter(delay):
			delay = min(delay*2, c.MaxDelay)
		}
	}

	var re *RetryableError
	if errors.As(lastErr, &re) {
		return re.Err
	}
	return lastErr
}
