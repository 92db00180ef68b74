// Package retry implements the exponential-backoff policy applied to
// transient network failures. Non-transient errors propagate immediately.
package retry

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// Policy controls attempt count and backoff. The delay before attempt n+1 is
// BaseDelay * 2^(n-1). Sleep is replaceable for tests; nil uses a
// context-aware timer. Retryable decides which errors are worth another
// attempt; nil means IsTransient.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Sleep       func(ctx context.Context, d time.Duration) error
	Retryable   func(error) bool
}

// Default returns the service's standard policy: 3 attempts, 1s base delay.
func Default() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, BaseDelay: DefaultBaseDelay}
}

// Always marks every error retryable, for operations whose failures carry no
// transport classification (browser automation).
func Always(error) bool { return true }

// Do invokes op until it succeeds, fails with a non-retryable error, or
// attempts run out. The last retryable error is returned unwrapped after
// exhaustion. Cancellation always stops the loop.
func Do(ctx context.Context, policy Policy, logger *zap.Logger, op func(ctx context.Context) error) error {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultMaxAttempts
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = DefaultBaseDelay
	}
	sleep := policy.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	retryable := policy.Retryable
	if retryable == nil {
		retryable = IsTransient
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		if !retryable(err) || errors.Is(err, context.Canceled) {
			return err
		}

		lastErr = err
		if attempt == policy.MaxAttempts {
			break
		}

		delay := policy.BaseDelay << (attempt - 1)
		logger.Warn("transient failure, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := sleep(ctx, delay); err != nil {
			return err
		}
	}

	return lastErr
}

// IsTransient reports whether err is a timeout or connection-level failure
// worth retrying. Context cancellation is never transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	for _, errno := range []syscall.Errno{
		syscall.ECONNREFUSED,
		syscall.ECONNRESET,
		syscall.ECONNABORTED,
		syscall.EPIPE,
		syscall.EHOSTUNREACH,
		syscall.ENETUNREACH,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}

	return false
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		if !timer.Stop() {
			<-timer.C
		}
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
