package printer_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/slok/stockwatch/internal/printer"
)

func TestTimeAgo(t *testing.T) {
	now := time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		time     time.Time
		expected string
	}{
		"now": {
			time:     now,
			expected: "0 seconds ago",
		},
		"1 second ago": {
			time:     now.Add(-1 * time.Second),
			expected: "1 second ago",
		},
		"30 seconds ago": {
			time:     now.Add(-30 * time.Second),
			expected: "30 seconds ago",
		},
		"1 minute ago": {
			time:     now.Add(-1 * time.Minute),
			expected: "1 minute ago",
		},
		"45 minutes ago": {
			time:     now.Add(-45*time.Minute - 10*time.Second),
			expected: "45 minutes ago",
		},
		"5 hours ago": {
			time:     now.Add(-5 * time.Hour),
			expected: "5 hours ago",
		},
		"7 days ago": {
			time:     now.Add(-7 * 24 * time.Hour),
			expected: "7 days ago",
		},
		"future time": {
			time:     now.Add(5 * time.Minute),
			expected: "in the future",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			result := printer.TimeAgo(test.time, now)
			assert.Equal(test.expected, result)
		})
	}
}

func TestFormatTimestamp(t *testing.T) {
	tests := map[string]struct {
		time     time.Time
		expected string
	}{
		"standard timestamp": {
			time:     time.Date(2026, 1, 30, 10, 15, 30, 0, time.UTC),
			expected: "2026-01-30 10:15:30 UTC",
		},
		"timestamp with different timezone gets converted to UTC": {
			time:     time.Date(2026, 1, 30, 10, 15, 30, 0, time.FixedZone("CST", 8*3600)),
			expected: "2026-01-30 02:15:30 UTC",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			result := printer.FormatTimestamp(test.time)
			assert.Equal(test.expected, result)
		})
	}
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "45s", printer.FormatElapsed(45*time.Second+200*time.Millisecond))
	assert.Equal(t, "10m0s", printer.FormatElapsed(10*time.Minute))
	assert.Equal(t, "-", printer.FormatElapsed(-time.Second))
}
