// Package queue implements the durable upload queue: the enqueue contract
// and the job-level retry policy.
package queue

import "time"

// MaxAttempts is the number of attempts a job gets before it becomes
// terminally failed.
const MaxAttempts = 8

// backoffTable maps attempt number to the delay before the next attempt.
// Fixed rather than exponential: the workflow has a human waiting on the far
// end, so worst-case latency stays bounded at ten minutes.
var backoffTable = []time.Duration{
	10 * time.Second, // after attempt 1
	30 * time.Second, // after attempt 2
	1 * time.Minute,  // after attempt 3
	2 * time.Minute,  // after attempt 4
	5 * time.Minute,  // after attempt 5
	10 * time.Minute, // after attempt 6 and beyond
}

// Backoff returns the delay before the next attempt after the given attempt
// number has failed. Attempt numbers start at 1; out-of-range values clamp
// to the table's edges.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > len(backoffTable) {
		attempt = len(backoffTable)
	}
	return backoffTable[attempt-1]
}
