package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "deadline exceeded" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func recordingSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestDoRetriesTransientFailuresWithExponentialBackoff(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	policy := Policy{MaxAttempts: 3, BaseDelay: time.Second, Sleep: recordingSleep(&delays)}

	calls := 0
	err := Do(context.Background(), policy, nil, func(context.Context) error {
		calls++
		if calls < 3 {
			return timeoutError{}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestDoDoesNotRetryNonTransientErrors(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	policy := Policy{MaxAttempts: 3, BaseDelay: time.Second, Sleep: recordingSleep(&delays)}

	fatal := errors.New("malformed response")
	calls := 0
	err := Do(context.Background(), policy, nil, func(context.Context) error {
		calls++
		return fatal
	})

	require.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
	assert.Empty(t, delays)
}

func TestDoReturnsLastTransientErrorAfterExhaustion(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	policy := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond, Sleep: recordingSleep(&delays)}

	calls := 0
	err := Do(context.Background(), policy, nil, func(context.Context) error {
		calls++
		return fmt.Errorf("attempt %d: %w", calls, syscall.ECONNREFUSED)
	})

	require.Error(t, err)
	assert.ErrorContains(t, err, "attempt 3")
	assert.Equal(t, 3, calls)
	assert.Len(t, delays, 2)
}

func TestDoStopsWhenContextCanceledDuringBackoff(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	policy := Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Millisecond,
		Sleep: func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}

	calls := 0
	err := Do(ctx, policy, nil, func(context.Context) error {
		calls++
		return timeoutError{}
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsTransient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "context canceled", err: context.Canceled, want: false},
		{name: "context deadline", err: context.DeadlineExceeded, want: true},
		{name: "os deadline", err: os.ErrDeadlineExceeded, want: true},
		{name: "net timeout", err: timeoutError{}, want: true},
		{name: "wrapped net timeout", err: fmt.Errorf("do request: %w", timeoutError{}), want: true},
		{name: "connection refused", err: &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, want: true},
		{name: "connection reset", err: fmt.Errorf("read: %w", syscall.ECONNRESET), want: true},
		{name: "dns failure", err: &net.DNSError{Err: "no such host", Name: "example.invalid"}, want: true},
		{name: "api failure", err: errors.New("HTTP 500"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestDoWithAlwaysRetriesAnyError(t *testing.T) {
	t.Parallel()

	var delays []time.Duration
	policy := Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Retryable:   Always,
		Sleep: func(_ context.Context, d time.Duration) error {
			delays = append(delays, d)
			return nil
		},
	}

	calls := 0
	err := Do(context.Background(), policy, nil, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("challenge cookies missing")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestDoWithAlwaysStillStopsOnCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Retryable:   Always,
		Sleep: func(context.Context, time.Duration) error {
			t.Fatal("sleep should not run for canceled work")
			return nil
		},
	}

	calls := 0
	err := Do(ctx, policy, nil, func(ctx context.Context) error {
		calls++
		return ctx.Err()
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
