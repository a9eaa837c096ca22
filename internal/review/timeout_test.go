package review

import (
	"fmt"
	"strings"
	"testing"
)

func TestTimeoutPrecedence(t *testing.T) {
	tests := []struct {
		name     string
		cliMs    int
		envValue string
		want     int
	}{
		{
			name:     "default when nothing set",
			cliMs:    0,
			envValue: "",
			want:     DefaultTimeoutMs,
		},
		{
			name:     "env variable wins over default",
			cliMs:    0,
			envValue: "45000",
			want:     45000,
		},
		{
			name:     "cli override wins over env",
			cliMs:    60000,
			envValue: "45000",
			want:     60000,
		},
		{
			name:     "invalid env value falls through to default",
			cliMs:    0,
			envValue: "not-a-number",
			want:     DefaultTimeoutMs,
		},
		{
			name:     "negative env value falls through to default",
			cliMs:    0,
			envValue: "-5",
			want:     DefaultTimeoutMs,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvTimeout, tt.envValue)
			got := Timeout(tt.cliMs, nil)
			if got != tt.want {
				t.Errorf("Timeout(%d) = %d, want %d", tt.cliMs, got, tt.want)
			}
		})
	}
}

func TestValidateTimeoutClamping(t *testing.T) {
	tests := []struct {
		name       string
		ms         int
		want       int
		wantWarn   bool
		warnTokens []string
	}{
		{
			name:       "below floor clamps up",
			ms:         10000,
			want:       30000,
			wantWarn:   true,
			warnTokens: []string{"10000", "30000"},
		},
		{
			name:       "above ceiling clamps down",
			ms:         3600000,
			want:       1800000,
			wantWarn:   true,
			warnTokens: []string{"3600000", "1800000"},
		},
		{
			name:     "in range passes through",
			ms:       900000,
			want:     900000,
			wantWarn: false,
		},
		{
			name:     "exact floor passes through",
			ms:       MinTimeoutMs,
			want:     MinTimeoutMs,
			wantWarn: false,
		},
		{
			name:     "exact ceiling passes through",
			ms:       MaxTimeoutMs,
			want:     MaxTimeoutMs,
			wantWarn: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var warning string
			warn := func(format string, args ...any) {
				warning = fmt.Sprintf(format, args...)
			}

			got := ValidateTimeout(tt.ms, warn)
			if got != tt.want {
				t.Errorf("ValidateTimeout(%d) = %d, want %d", tt.ms, got, tt.want)
			}
			if tt.wantWarn && warning == "" {
				t.Error("expected a clamp warning, got none")
			}
			if !tt.wantWarn && warning != "" {
				t.Errorf("expected no warning, got %q", warning)
			}
			for _, token := range tt.warnTokens {
				if !strings.Contains(warning, token) {
					t.Errorf("warning %q missing %q", warning, token)
				}
			}
		})
	}
}

func TestValidateTimeoutIdempotent(t *testing.T) {
	for _, ms := range []int{0, 10000, 30000, 900000, 1800000, 5000000} {
		once := ValidateTimeout(ms, nil)
		twice := ValidateTimeout(once, nil)
		if once != twice {
			t.Errorf("ValidateTimeout not idempotent for %d: %d then %d", ms, once, twice)
		}
		if once < MinTimeoutMs || once > MaxTimeoutMs {
			t.Errorf("ValidateTimeout(%d) = %d outside [%d, %d]", ms, once, MinTimeoutMs, MaxTimeoutMs)
		}
	}
}

func TestPerReviewerTimeout(t *testing.T) {
	if got := perReviewerTimeout(1_200_000); got.Milliseconds() != perReviewerCapMs {
		t.Errorf("large budget should cap at %dms, got %d", perReviewerCapMs, got.Milliseconds())
	}
	if got := perReviewerTimeout(45_000); got.Milliseconds() != 45_000 {
		t.Errorf("small budget should pass through, got %d", got.Milliseconds())
	}
}
