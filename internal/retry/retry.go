// Package retry provides bounded retries with exponential backoff for engine
// invocations that fail transiently (rate limits, network hiccups).
package retry

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"
	"time"
)

const (
	// DefaultMaxRetries is the default number of retry attempts.
	DefaultMaxRetries = 2
	// DefaultBaseDelay is the base delay for exponential backoff.
	DefaultBaseDelay = 3 * time.Second
	// DefaultMaxJitterPercent is the maximum jitter percentage.
	DefaultMaxJitterPercent = 25
)

// Config holds retry configuration.
type Config struct {
	MaxRetries       int
	BaseDelay        time.Duration
	MaxJitterPercent int
	Logger           *slog.Logger // nil for no logging
}

// Operation is one attempt at the retried call, returning its output.
type Operation func() (string, error)

// Do runs op, retrying on retryable errors with exponential backoff and
// jitter. The last output and error are returned after the final attempt.
func Do(ctx context.Context, cfg Config, op Operation) (string, error) {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxJitterPercent < 0 || cfg.MaxJitterPercent > 100 {
		cfg.MaxJitterPercent = DefaultMaxJitterPercent
	}

	var output string
	var err error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		output, err = op()
		if err == nil {
			return output, nil
		}
		if !IsRetryable(err) {
			if cfg.Logger != nil {
				cfg.Logger.Debug("non-retryable error, stopping", "error", err)
			}
			return output, err
		}
		if attempt >= cfg.MaxRetries {
			break
		}

		delay := Delay(cfg.BaseDelay, attempt, cfg.MaxJitterPercent)
		if cfg.Logger != nil {
			cfg.Logger.Info("retrying after transient error",
				"delay", delay.Round(time.Second), "attempt", attempt+1, "max", cfg.MaxRetries, "error", err)
		}

		select {
		case <-ctx.Done():
			return output, ctx.Err()
		case <-time.After(delay):
		}
	}

	return output, err
}

// Delay returns the backoff for a given attempt: base * 2^attempt plus up to
// maxJitterPercent% random jitter.
func Delay(base time.Duration, attempt int, maxJitterPercent int) time.Duration {
	delay := base * time.Duration(1<<attempt)
	if maxJitterPercent > 0 {
		jitterRange := float64(delay) * float64(maxJitterPercent) / 100.0
		delay += time.Duration(rand.Float64() * jitterRange)
	}
	return delay
}

// retryablePatterns are error message fragments that indicate a transient
// failure worth retrying.
var retryablePatterns = []string{
	"rate limit",
	"rate_limit",
	"timed out",
	"timeout",
	"deadline exceeded",
	"network",
	"connection refused",
	"connection reset",
	"503",
	"429",
	"overloaded",
}

// nonRetryablePatterns override retryablePatterns: these failures will not
// improve on a second attempt.
var nonRetryablePatterns = []string{
	"not found",
	"unauthorized",
	"forbidden",
	"permission denied",
	"authentication",
	"invalid",
	"400",
	"401",
	"403",
}

// IsRetryable reports whether an error looks transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range nonRetryablePatterns {
		if strings.Contains(msg, p) {
			return false
		}
	}
	for _, p := range retryablePatterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}
