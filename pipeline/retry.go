package pipeline

import (
	"fmt"
	"log"
	"time"
)

const (
	// DefaultRetryWait is the fixed pause before every attempt. The hosted
	// generation backends are rate limited, so a short fixed pause works and
	// exponential backoff is not worth the complexity.
	DefaultRetryWait = 10 * time.Second
	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 5
)

// Attempt runs op with a fixed delay before every attempt, including the
// first. On success it returns immediately; otherwise it retries up to
// maxRetries more times and fails with the attempt count and the last cause.
// It is reusable for any single unreliable call.
func Attempt(label string, maxRetries int, delay time.Duration, op func() error) error {
	attempts := maxRetries + 1
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		if delay > 0 {
			log.Printf("Waiting %s before %s (attempt %d/%d)...", delay, label, attempt, attempts)
			time.Sleep(delay)
		}
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt < attempts {
			log.Printf("%s failed (attempt %d/%d): %v. Retrying...", label, attempt, attempts, err)
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", label, attempts, lastErr)
}
