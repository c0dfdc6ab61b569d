package dex

import (
	"context"
	"time"
)

// retry runs fn under the reader's backoff policy: cfg.MaxRetries extra
// attempts, delay starting at cfg.RetryBackoff and doubling each round.
func (r *Reader) retry(ctx context.Context, fn func(context.Context) error) error {
	delay := r.cfg.RetryBackoff
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}

	for attempt := 0; ; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		if attempt >= r.cfg.MaxRetries {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		delay *= 2
	}
}
