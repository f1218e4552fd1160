package contract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, time.November, 3, 10, 0, 0, 0, time.UTC)

// TestParseRelativeTimeUnit covers various valid and invalid cases.
func TestParseRelativeTimeUnit(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    time.Time
		expectError bool
	}{
		{name: "valid plural months (mixed case)", input: "3 MoNtHs AgO", expected: fixedNow.AddDate(0, -3, 0)},
		{name: "valid singular week", input: "1 Week Ago", expected: fixedNow.Add(-7 * 24 * time.Hour)},
		{name: "valid 10 days", input: "10 DAYS AGO", expected: fixedNow.Add(-10 * 24 * time.Hour)},
		{name: "invalid missing ago", input: "2 years", expectError: true},
		{name: "invalid bad unit", input: "4 decades ago", expectError: true},
		{name: "invalid non-numeric value", input: "one year ago", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRelativeTime(tt.input, fixedNow)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseTimeBound(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Time
		wantErr  bool
	}{
		{"2025-10-01T12:30:00Z", time.Date(2025, 10, 1, 12, 30, 0, 0, time.UTC), false},
		{"2025-10-01", time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), false},
		{"2 days ago", fixedNow.Add(-48 * time.Hour), false},
		{"yesterday", time.Time{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimeBound(tt.input, fixedNow)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got), "got %s", got)
		})
	}
}

// TestParseDuration covers Go durations and the human-readable fallbacks,
// including the month/year approximations.
func TestParseDuration(t *testing.T) {
	const day = 24 * time.Hour

	tests := []struct {
		name      string
		input     string
		want      time.Duration
		expectErr bool
	}{
		{"go duration", "5m", 5 * time.Minute, false},
		{"go duration compound", "1h30m", 90 * time.Minute, false},
		{"30 seconds", "30 seconds", 30 * time.Second, false},
		{"1 minute", "1 minute", time.Minute, false},
		{"3 hours", "3 hours", 3 * time.Hour, false},
		{"7 days", "7 days", 7 * day, false},
		{"1 week", "1 week", 7 * day, false},
		{"1 month approx", "1 month", 30 * day, false},
		{"1 year approx", "1 year", 365 * day, false},
		{"mixed case", "3 MoNtHs", 3 * 30 * day, false},
		{"extra space", " 1  day ", day, false},
		{"zero go duration", "0s", 0, true},
		{"negative go duration", "-5m", 0, true},
		{"zero quantity", "0 days", 0, true},
		{"invalid unit", "3 decades", 0, true},
		{"non-integer quantity", "1.5 days", 0, true},
		{"empty string", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if tt.expectErr {
				assert.Error(t, err, "Expected an error for input: %q", tt.input)
			} else if assert.NoError(t, err, "Did not expect an error for input: %q", tt.input) {
				assert.Equal(t, tt.want, got, "Duration mismatch for input: %q", tt.input)
			}
		})
	}
}
