package model

import (
	"testing"
	"time"
)

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		name     string
		d        time.Duration
		expected string
	}{
		{
			name:     "zero",
			d:        0,
			expected: "00:00:00",
		},
		{
			name:     "seconds only",
			d:        42 * time.Second,
			expected: "00:00:42",
		},
		{
			name:     "minutes and seconds",
			d:        3*time.Minute + 5*time.Second,
			expected: "00:03:05",
		},
		{
			name:     "hours wrap minutes",
			d:        2*time.Hour + 59*time.Minute + 59*time.Second,
			expected: "02:59:59",
		},
		{
			name:     "hours beyond two digits",
			d:        100*time.Hour + time.Second,
			expected: "100:00:01",
		},
		{
			name:     "sub-second truncates",
			d:        900 * time.Millisecond,
			expected: "00:00:00",
		},
		{
			name:     "negative clamps to zero",
			d:        -5 * time.Second,
			expected: "00:00:00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatUptime(tt.d); got != tt.expected {
				t.Errorf("FormatUptime(%v) = %q, want %q", tt.d, got, tt.expected)
			}
		})
	}
}
