package pipeline

import (
	"context"
	"time"
)

const maxBackoff = 30 * time.Second

// retryPolicy controls how transient stage failures are re-attempted.
type retryPolicy struct {
	MaxAttempts int
	BackoffBase time.Duration
}

// delay returns how long to wait before the given attempt (1-based). The
// first attempt has no delay; each subsequent one doubles, capped at
// maxBackoff.
func (p retryPolicy) delay(attempt int) time.Duration {
	if attempt <= 1 || p.BackoffBase <= 0 {
		return 0
	}
	d := p.BackoffBase << (attempt - 2)
	if d > maxBackoff || d <= 0 {
		return maxBackoff
	}
	return d
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
