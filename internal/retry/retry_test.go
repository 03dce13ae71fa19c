package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestWithScheduleSucceedsFirstTry(t *testing.T) {
	calls := 0
	result := WithSchedule(context.Background(), Schedule{time.Millisecond}, nil, func(ctx context.Context, attempt int) error {
		calls++
		return nil
	})

	if !result.Success {
		t.Fatalf("expected success, got error %v", result.LastError)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestWithScheduleRetriesUntilSuccess(t *testing.T) {
	calls := 0
	result := WithSchedule(context.Background(), Schedule{time.Millisecond, time.Millisecond}, nil, func(ctx context.Context, attempt int) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})

	if !result.Success {
		t.Fatalf("expected success after retries, got %v", result.LastError)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if result.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", result.Attempts)
	}
}

func TestWithScheduleExhaustsAttempts(t *testing.T) {
	wantErr := errors.New("still broken")
	calls := 0
	result := WithSchedule(context.Background(), Schedule{time.Millisecond, time.Millisecond}, nil, func(ctx context.Context, attempt int) error {
		calls++
		return wantErr
	})

	if result.Success {
		t.Fatal("expected failure")
	}
	// len(schedule)+1 attempts
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if !errors.Is(result.Error(), wantErr) {
		t.Errorf("Error() = %v, want wrapped %v", result.Error(), wantErr)
	}
}

func TestWithScheduleStopsOnNonRetryable(t *testing.T) {
	permanent := errors.New("permanent")
	calls := 0
	retryable := func(err error) bool { return !errors.Is(err, permanent) }

	result := WithSchedule(context.Background(), Schedule{time.Millisecond, time.Millisecond}, retryable, func(ctx context.Context, attempt int) error {
		calls++
		return permanent
	})

	if result.Success {
		t.Fatal("expected failure")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on permanent error)", calls)
	}
}

func TestWithScheduleHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	result := WithSchedule(ctx, Schedule{time.Minute}, nil, func(ctx context.Context, attempt int) error {
		calls++
		cancel()
		return errors.New("transient")
	})

	if result.Success {
		t.Fatal("expected failure")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if !errors.Is(result.LastError, context.Canceled) {
		t.Errorf("LastError = %v, want context.Canceled", result.LastError)
	}
}

func TestTransientHTTPSchedule(t *testing.T) {
	schedule := TransientHTTPSchedule()
	want := []time.Duration{1 * time.Second, 3 * time.Second, 8 * time.Second}

	if len(schedule) != len(want) {
		t.Fatalf("len = %d, want %d", len(schedule), len(want))
	}
	for i, d := range want {
		if schedule[i] != d {
			t.Errorf("schedule[%d] = %v, want %v", i, schedule[i], d)
		}
	}
}
