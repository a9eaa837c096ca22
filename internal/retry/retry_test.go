package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"rate limit exceeded", true},
		{"rate_limit_error from API", true},
		{"request timed out", true},
		{"context deadline exceeded", true},
		{"network is unreachable", true},
		{"connection refused", true},
		{"connection reset by peer", true},
		{"HTTP 503 service unavailable", true},
		{"HTTP 429 too many requests", true},
		{"server overloaded", true},
		{"model not found", false},
		{"unauthorized", false},
		{"forbidden", false},
		{"permission denied", false},
		{"authentication failed", false},
		{"invalid request", false},
		{"HTTP 400 bad request", false},
		{"HTTP 401", false},
		{"HTTP 403", false},
		// Non-retryable patterns win even when a retryable one also matches.
		{"invalid request: rate limit header missing", false},
		// Unrecognized errors do not retry.
		{"something strange happened", false},
	}

	for _, tt := range tests {
		if got := IsRetryable(errors.New(tt.msg)); got != tt.want {
			t.Errorf("IsRetryable(%q) = %v, want %v", tt.msg, got, tt.want)
		}
	}

	if IsRetryable(nil) {
		t.Error("IsRetryable(nil) must be false")
	}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	out, err := Do(context.Background(), Config{MaxRetries: 2, BaseDelay: time.Millisecond}, func() (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil || out != "ok" {
		t.Fatalf("Do = (%q, %v)", out, err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoRetriesTransient(t *testing.T) {
	calls := 0
	out, err := Do(context.Background(), Config{MaxRetries: 3, BaseDelay: time.Millisecond}, func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("rate limit")
		}
		return "recovered", nil
	})
	if err != nil || out != "recovered" {
		t.Fatalf("Do = (%q, %v)", out, err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Config{MaxRetries: 3, BaseDelay: time.Millisecond}, func() (string, error) {
		calls++
		return "", errors.New("unauthorized")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on permanent error)", calls)
	}
}

func TestDoExhaustsRetries(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), Config{MaxRetries: 2, BaseDelay: time.Millisecond}, func() (string, error) {
		calls++
		return "", errors.New("connection refused")
	})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3 (initial + 2 retries)", calls)
	}
}

func TestDoHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Do(ctx, Config{MaxRetries: 2, BaseDelay: time.Hour}, func() (string, error) {
		return "", errors.New("timeout")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestDelay(t *testing.T) {
	base := 100 * time.Millisecond
	for attempt := 0; attempt < 4; attempt++ {
		want := base * time.Duration(1<<attempt)
		got := Delay(base, attempt, 0)
		if got != want {
			t.Errorf("Delay(attempt=%d) = %v, want %v", attempt, got, want)
		}
	}

	// Jitter stays within the configured percentage.
	for i := 0; i < 50; i++ {
		got := Delay(base, 1, 25)
		lo, hi := 200*time.Millisecond, 250*time.Millisecond
		if got < lo || got > hi {
			t.Fatalf("jittered delay %v outside [%v, %v]", got, lo, hi)
		}
	}
}
