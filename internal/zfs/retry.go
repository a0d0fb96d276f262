package zfs

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// retry runs fn with exponential backoff while it fails with a transient error.
// Only read-only operations go through here; destroy is never retried.
func retry[T any](ctx context.Context, tries uint, fn func() (T, error)) (T, error) {
	if tries == 0 {
		tries = 1
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second

	return backoff.Retry[T](ctx, func() (T, error) {
		v, err := fn()
		if err != nil && !isTransient(err) {
			return v, backoff.Permanent(err)
		}
		return v, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(tries))
}
