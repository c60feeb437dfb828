package isotime

import (
	"fmt"
	"strings"
	"time"
)

// Layouts accepted by Parse, the server uses naive ISO 8601 timestamps.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Parse parses an ISO 8601 timestamp, timestamps without zone are assumed UTC.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	for _, l := range layouts {
		t, err := time.Parse(l, s)
		if err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// ParsePtr is like Parse but returns nil when the timestamp is empty or invalid.
func ParsePtr(s string) *time.Time {
	t, err := Parse(s)
	if err != nil {
		return nil
	}
	return &t
}
