package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/quickmart/reserve/internal/domain"
)

// Two transactions mutating the same product can deadlock when the store's
// internal lock ordering differs; bounded retry turns that into a slower but
// still correct operation. Schedule: initial attempt plus up to three retries.
var transientBackoff = []time.Duration{
	100 * time.Millisecond,
	200 * time.Millisecond,
	400 * time.Millisecond,
}

// retryTransient runs fn, re-running it with exponential backoff whenever it
// fails with ErrTransientStore. After the schedule is exhausted the last
// error propagates.
func retryTransient(ctx context.Context, logger *slog.Logger, fn func() error) error {
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, domain.ErrTransientStore) || attempt >= len(transientBackoff) {
			return err
		}

		delay := transientBackoff[attempt]
		logger.WarnContext(ctx, "transient store failure, retrying",
			"attempt", attempt+1,
			"delay_ms", delay.Milliseconds(),
			"error", err)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
