package store

import (
	"context"
	"fmt"
	"time"
)

// RetryingStore wraps an ObjectStore and retries transient Put failures
// with capped exponential backoff. Artifact uploads run during call
// finalization where a single blip should not lose a recording.
type RetryingStore struct {
	inner    ObjectStore
	attempts int
	base     time.Duration
	cap      time.Duration
}

// WithRetry decorates objects with up to attempts tries per Put.
func WithRetry(objects ObjectStore, attempts int, base, cap time.Duration) *RetryingStore {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryingStore{inner: objects, attempts: attempts, base: base, cap: cap}
}

func (s *RetryingStore) Put(ctx context.Context, bucket, key string, body []byte, contentType string) error {
	var lastErr error
	for attempt := 0; attempt < s.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff(attempt-1, s.base, s.cap)):
			}
		}
		if lastErr = s.inner.Put(ctx, bucket, key, body, contentType); lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("put %s/%s after %d attempts: %w", bucket, key, s.attempts, lastErr)
}

// backoff computes a deterministic capped backoff duration.
func backoff(attempt int, base, cap time.Duration) time.Duration {
	if attempt <= 0 {
		return base
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= cap {
			return cap
		}
	}
	return d
}
