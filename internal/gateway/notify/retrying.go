package notify

import (
	"context"
	"errors"
	"net/http"
	"time"

	"pharmadispatch/internal/domain"
	"pharmadispatch/internal/logx"
)

type pusher interface {
	NotifyAssigned(context.Context, domain.AssignResult) error
}

type counter interface {
	Inc()
}

// RetryConfig describes the retry behaviour of RetryingNotifier
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// RetryingNotifier retries transient push failures with exponential backoff
type RetryingNotifier struct {
	next    pusher
	logger  logx.Logger
	retries counter
	cfg     RetryConfig
}

// NewRetryingNotifier wraps gw with retry behaviour. The gateway pointer is
// taken concretely: a disabled gateway yields a nil notifier instead of a
// non-nil interface around a nil receiver.
func NewRetryingNotifier(gw *HTTPGateway, logger logx.Logger, retries counter, cfg RetryConfig) *RetryingNotifier {
	if gw == nil {
		return nil
	}
	return &RetryingNotifier{next: gw, logger: logger, retries: retries, cfg: cfg}
}

// NotifyAssigned pushes the notification, retrying transient failures.
func (n *RetryingNotifier) NotifyAssigned(ctx context.Context, r domain.AssignResult) error {
	var lastErr error
	for attempt := 1; attempt <= n.cfg.MaxAttempts; attempt++ {
		err := n.next.NotifyAssigned(ctx, r)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil || attempt == n.cfg.MaxAttempts || !isRetryable(err) {
			break
		}

		delay := backoff(n.cfg.BaseDelay, n.cfg.MaxDelay, attempt)
		if n.retries != nil {
			n.retries.Inc()
		}
		n.logger.Warn("notify gateway retry",
			logx.Int64("delivery_id", r.DeliveryID),
			logx.Int("attempt", attempt),
			logx.Duration("delay", delay),
			logx.Any("err", err),
		)
		if !sleepWithContext(ctx, delay) {
			break
		}
	}
	return lastErr
}

// isRetryable treats transport failures and throttling/server statuses as
// transient; every other status is a permanent rejection.
func isRetryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= http.StatusInternalServerError
	}
	return true
}

// backoff computes the delay before the next attempt
func backoff(base, max time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d > max {
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
