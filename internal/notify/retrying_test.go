package notify

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	testlog "github.com/y0lz/backend-json/internal/testutil"
	"github.com/y0lz/backend-json/internal/transport/kafka"
)

type notifyFunc func(ctx context.Context, externalID, message string) error

func (f notifyFunc) Notify(ctx context.Context, externalID, message string) error {
	return f(ctx, externalID, message)
}

type counterStub struct{ n int64 }

func (c *counterStub) Inc()         { atomic.AddInt64(&c.n, 1) }
func (c *counterStub) Count() int64 { return atomic.LoadInt64(&c.n) }

func TestRetryingNotifier_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	var calls int32
	next := notifyFunc(func(context.Context, string, string) error {
		if atomic.AddInt32(&calls, 1) < 3 {
			return errors.New("broker down")
		}
		return nil
	})
	ctr := &counterStub{}

	n := NewRetryingNotifier(next, rec.Logger(), ctr, RetryConfig{MaxAttempts: 5})
	require.NotNil(t, n)
	require.NoError(t, n.Notify(context.Background(), "tg-1", "hi"))
	require.EqualValues(t, 3, atomic.LoadInt32(&calls))
	require.EqualValues(t, 2, ctr.Count())
	require.Len(t, rec.Level("warn"), 2)
}

func TestRetryingNotifier_NoRetryOnPermanent(t *testing.T) {
	t.Parallel()

	var calls int32
	next := notifyFunc(func(context.Context, string, string) error {
		atomic.AddInt32(&calls, 1)
		return kafka.Permanent(errors.New("too large"))
	})
	ctr := &counterStub{}

	n := NewRetryingNotifier(next, nil, ctr, RetryConfig{MaxAttempts: 5})
	err := n.Notify(context.Background(), "tg-1", "hi")
	require.True(t, kafka.IsPermanent(err))
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
	require.Zero(t, ctr.Count())
}

func TestRetryingNotifier_GivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("unavailable")
	var calls int32
	next := notifyFunc(func(context.Context, string, string) error {
		atomic.AddInt32(&calls, 1)
		return sentinel
	})

	n := NewRetryingNotifier(next, nil, nil, RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond})
	require.ErrorIs(t, n.Notify(context.Background(), "tg-1", "hi"), sentinel)
	require.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestRetryingNotifier_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var calls int32
	next := notifyFunc(func(context.Context, string, string) error {
		atomic.AddInt32(&calls, 1)
		cancel()
		return errors.New("unavailable")
	})

	n := NewRetryingNotifier(next, nil, nil, RetryConfig{MaxAttempts: 5, BaseDelay: time.Hour, MaxDelay: time.Hour})
	require.Error(t, n.Notify(ctx, "tg-1", "hi"))
	require.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestNewRetryingNotifier_NilNext(t *testing.T) {
	t.Parallel()

	require.Nil(t, NewRetryingNotifier(nil, nil, nil, RetryConfig{}))
}

func TestBackoff(t *testing.T) {
	t.Parallel()

	require.Equal(t, 10*time.Millisecond, backoff(10*time.Millisecond, time.Second, 1))
	require.Equal(t, 40*time.Millisecond, backoff(10*time.Millisecond, time.Second, 3))
	require.Equal(t, time.Second, backoff(10*time.Millisecond, time.Second, 20))
}
