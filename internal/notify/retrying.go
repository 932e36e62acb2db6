package notify

import (
	"context"
	"errors"
	"time"

	"github.com/y0lz/backend-json/internal/logx"
	"github.com/y0lz/backend-json/internal/transport/kafka"
)

// RetryConfig описывает поведение RetryingNotifier
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RetryingNotifier повторяет доставку с экспоненциальной задержкой
type RetryingNotifier struct {
	next    Notifier
	logger  logx.Logger
	retries counter
	cfg     RetryConfig
}

// NewRetryingNotifier returns nil when next is nil.
func NewRetryingNotifier(next Notifier, logger logx.Logger, retries counter, cfg RetryConfig) *RetryingNotifier {
	if next == nil {
		return nil
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &RetryingNotifier{next: next, logger: logger, retries: retries, cfg: cfg}
}

// Notify implements Notifier.
func (n *RetryingNotifier) Notify(ctx context.Context, externalID, message string) error {
	var lastErr error
	for attempt := 1; attempt <= n.cfg.MaxAttempts; attempt++ {
		err := n.next.Notify(ctx, externalID, message)
		if err == nil {
			return nil
		}
		lastErr = err
		// проверяем условия повтора
		if ctx.Err() != nil || attempt == n.cfg.MaxAttempts || !isRetryable(err) {
			break
		}
		delay := backoff(n.cfg.BaseDelay, n.cfg.MaxDelay, attempt)
		if n.retries != nil {
			n.retries.Inc()
		}
		n.logger.Warn("notify retry",
			logx.String("external_contact_id", externalID),
			logx.Int("attempt", attempt),
			logx.Duration("delay", delay),
			logx.Err(err),
		)
		if !sleepWithContext(ctx, delay) {
			break
		}
	}
	return lastErr
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return !kafka.IsPermanent(err)
}

// backoff вычисляет задержку повтора
func backoff(base, max time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d > max || d < 0 {
		return max
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
