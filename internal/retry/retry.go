// Package retry provides short-lived, in-process retry policies. These are
// the inner retries wrapped around individual network calls; the durable
// job-level backoff lives in the queue package.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/drive-uploader/internal/logging"
)

// Func is a function that can be retried. The attempt number starts at 1.
type Func func(ctx context.Context, attempt int) error

// Result contains information about a retry run.
type Result struct {
	Attempts      int
	Success       bool
	TotalDuration time.Duration
	LastError     error
}

// RetryableFunc decides whether an error is worth another attempt.
// A nil predicate retries every error.
type RetryableFunc func(err error) bool

// Schedule is a fixed table of delays between attempts. The number of
// attempts is len(schedule)+1: the first attempt runs immediately and each
// delay buys one more.
type Schedule []time.Duration

// TransientHTTPSchedule is the delay table used for transient provider
// errors (429/5xx): short, capped, and deliberately not open-ended since the
// durable job backoff handles longer outages.
func TransientHTTPSchedule() Schedule {
	return Schedule{1 * time.Second, 3 * time.Second, 8 * time.Second}
}

// WithSchedule executes fn, retrying per the schedule while retryable
// returns true for the error. It honors context cancellation during waits.
func WithSchedule(ctx context.Context, schedule Schedule, retryable RetryableFunc, fn Func) *Result {
	logger := logging.FromContext(ctx)
	startTime := time.Now()

	result := &Result{}

	maxAttempts := len(schedule) + 1
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result.Attempts = attempt

		err := fn(ctx, attempt)
		if err == nil {
			result.Success = true
			result.TotalDuration = time.Since(startTime)

			if attempt > 1 {
				logger.WithFields(map[string]interface{}{
					"attempts":      attempt,
					"totalDuration": result.TotalDuration.String(),
				}).Info("Operation succeeded after retry")
			}

			return result
		}

		result.LastError = err

		if attempt >= maxAttempts {
			break
		}
		if retryable != nil && !retryable(err) {
			break
		}
		if ctx.Err() != nil {
			result.LastError = ctx.Err()
			break
		}

		delay := schedule[attempt-1]
		logger.WithFields(map[string]interface{}{
			"attempt":     attempt,
			"maxAttempts": maxAttempts,
			"delay":       delay.String(),
			"error":       err.Error(),
		}).Warn("Operation failed, retrying")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			result.LastError = ctx.Err()
			result.TotalDuration = time.Since(startTime)
			return result
		}
	}

	result.TotalDuration = time.Since(startTime)
	return result
}

// Error converts a failed result into an error, or returns nil on success.
func (r *Result) Error() error {
	if r.Success {
		return nil
	}
	return fmt.Errorf("operation failed after %d attempts: %w", r.Attempts, r.LastError)
}
