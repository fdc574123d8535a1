package pipeline

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"medscribe-go/internal/apperr"
	"medscribe-go/internal/logger"
)

// RetryBaseInterval is the first wait between attempts.
var RetryBaseInterval = 500 * time.Millisecond

// Retry calls fn up to attempts times with exponential backoff. Only
// processing failures are retried; input and unavailability errors return
// immediately.
func Retry[T any](ctx context.Context, attempts int, fn func(context.Context) (T, error)) (T, error) {
	log := logger.New().WithField("component", "retry")
	if attempts < 1 {
		attempts = 1
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = RetryBaseInterval
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(attempts-1)), ctx)

	try := 0
	return backoff.RetryNotifyWithData(func() (T, error) {
		try++
		out, err := fn(ctx)
		if err != nil && apperr.CategoryOf(err) != apperr.Processing {
			return out, backoff.Permanent(err)
		}
		return out, err
	}, b, func(err error, wait time.Duration) {
		log.WithError(err).WithField("attempt", try).WithField("wait", wait.String()).Warn("attempt failed, retrying")
	})
}
