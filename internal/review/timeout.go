package review

import (
	"os"
	"strconv"
	"time"
)

const (
	// DefaultTimeoutMs is the overall review budget when nothing overrides it.
	DefaultTimeoutMs = 1_200_000 // 20 minutes

	// MinTimeoutMs and MaxTimeoutMs bound the accepted range.
	MinTimeoutMs = 30_000
	MaxTimeoutMs = 1_800_000

	// EnvTimeout overrides the default; an explicit CLI value beats both.
	EnvTimeout = "RALPH_REVIEW_TIMEOUT_MS"

	// perReviewerCapMs guards against one slow reviewer eating the whole
	// budget. Each reviewer gets min(this, overall).
	perReviewerCapMs = 60_000
)

// WarnFunc receives human-readable clamp warnings. A nil WarnFunc is valid.
type WarnFunc func(format string, args ...any)

// Timeout resolves the effective overall review timeout in milliseconds.
// Precedence: explicit CLI value > RALPH_REVIEW_TIMEOUT_MS > default. The
// resolved value is always clamped via ValidateTimeout.
func Timeout(cliOverrideMs int, warn WarnFunc) int {
	if cliOverrideMs > 0 {
		return ValidateTimeout(cliOverrideMs, warn)
	}
	if raw := os.Getenv(EnvTimeout); raw != "" {
		if ms, err := strconv.Atoi(raw); err == nil && ms > 0 {
			return ValidateTimeout(ms, warn)
		}
		if warn != nil {
			warn("Ignoring invalid %s value %q", EnvTimeout, raw)
		}
	}
	return DefaultTimeoutMs
}

// ValidateTimeout clamps ms into [MinTimeoutMs, MaxTimeoutMs], warning with
// both the original and clamped values when a bound is hit. Seconds are used
// at the floor and minutes at the ceiling for readability.
func ValidateTimeout(ms int, warn WarnFunc) int {
	if ms < MinTimeoutMs {
		if warn != nil {
			warn("Review timeout %dms is below the minimum; using %dms (%ds)",
				ms, MinTimeoutMs, MinTimeoutMs/1000)
		}
		return MinTimeoutMs
	}
	if ms > MaxTimeoutMs {
		if warn != nil {
			warn("Review timeout %dms exceeds the maximum; using %dms (%d minutes)",
				ms, MaxTimeoutMs, MaxTimeoutMs/60_000)
		}
		return MaxTimeoutMs
	}
	return ms
}

// perReviewerTimeout converts the overall budget into the per-prompt bound.
func perReviewerTimeout(overallMs int) time.Duration {
	ms := overallMs
	if ms > perReviewerCapMs {
		ms = perReviewerCapMs
	}
	return time.Duration(ms) * time.Millisecond
}
