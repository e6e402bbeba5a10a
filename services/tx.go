package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/bracket-engine/repositories"
)

const (
	defaultTxMaxAttempts    = 3
	defaultTxRetryBaseDelay = 25 * time.Millisecond
)

// txRunner runs a unit of work in one transaction and retries it when the
// database reports a serialization failure or deadlock. fn must not keep
// state between attempts.
type txRunner struct {
	tx          repositories.Transactor
	maxAttempts int
	baseDelay   time.Duration
	logger      *slog.Logger
}

func (r *txRunner) run(ctx context.Context, op string, fn func(ctx context.Context, exec repositories.SQLExecutor) error) error {
	attempts := r.maxAttempts
	if attempts < 1 {
		attempts = 1
	}
	delay := r.baseDelay

	for attempt := 1; ; attempt++ {
		err := r.tx.WithinTx(ctx, fn)
		if err == nil || !repositories.IsRetryable(err) {
			return err
		}
		if attempt >= attempts {
			return fmt.Errorf("%w: %s gave up after %d attempts: %w", ErrConcurrentModification, op, attempts, err)
		}

		r.logger.WarnContext(ctx, "transaction conflict, retrying",
			slog.String("operation", op),
			slog.Int("attempt", attempt),
			slog.Duration("backoff", delay),
			slog.Any("error", err))

		if delay > 0 {
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
}
