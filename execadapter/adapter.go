// Package execadapter defines the execution-adapter contract shared by
// live venue integrations. Per spec.md §1, wire-level DEX client details
// (quote/swap HTTP calls, websocket parsing, transaction signing) are
// deliberately out of scope — this package specifies the interface and the
// shared retry/backoff helper a concrete adapter would use, plus Simulated,
// an adapter backed by the in-memory order book.
package execadapter

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/web3guy0/gradsniper/bus"
)

// Reason enumerates the closed set of ways SubmitOrder can fail, per
// spec.md §4.11.
type Reason string

const (
	ReasonInsufficientBalance Reason = "insufficient-balance"
	ReasonUnknownToken        Reason = "unknown-token"
	ReasonQuoteFailed         Reason = "quote-failed"
	ReasonSubmitFailed        Reason = "submit-failed"
	ReasonPoolMissing         Reason = "pool-missing"
	ReasonNotConnected        Reason = "not-connected"
)

// Error wraps a Reason with adapter-specific detail.
type Error struct {
	Reason Reason
	Detail string
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return string(e.Reason) + ": " + e.Detail
}

// Adapter is the contract every live execution adapter implements.
// Connect installs an order-submitted subscription on the bus and
// publishes adapter-connected; Disconnect is idempotent; SubmitOrder maps
// an order intent to a venue action and returns an external identifier.
type Adapter interface {
	Name() string
	Connect(ctx context.Context, b *bus.Bus) error
	SubmitOrder(ctx context.Context, intent bus.OrderIntent) (externalID string, err error)
	Disconnect(ctx context.Context) error
}

// RetryConfig bounds the exponential backoff used around quote/submit
// calls that fail transiently (spec.md §7, quote/submit-failure).
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryConfig mirrors the teacher's retry defaults (bounded, small
// number of attempts, short initial delay).
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, BaseDelay: 200 * time.Millisecond, MaxDelay: 5 * time.Second}
}

// WithRetry calls op up to cfg.MaxRetries+1 times with exponential backoff,
// honoring ctx cancellation between attempts. The final failure is returned
// as-is so the caller can surface it as order-rejected.
func WithRetry(ctx context.Context, cfg RetryConfig, op func(attempt int) error) error {
	var lastErr error
	delay := cfg.BaseDelay

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(attempt)
		if lastErr == nil {
			return nil
		}

		log.Warn().Int("attempt", attempt+1).Err(lastErr).Msg("execution adapter call failed, retrying")

		if attempt == cfg.MaxRetries {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		delay *= 2
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return lastErr
}

var errNotConnected = errors.New(string(ReasonNotConnected))

// ErrNotConnected is returned by SubmitOrder implementations before Connect
// has completed successfully.
func ErrNotConnected() error { return errNotConnected }
