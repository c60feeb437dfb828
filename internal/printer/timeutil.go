package printer

import (
	"fmt"
	"time"
)

var agoUnits = []struct {
	size time.Duration
	name string
}{
	{24 * time.Hour, "day"},
	{time.Hour, "hour"},
	{time.Minute, "minute"},
}

// TimeAgo returns a human-readable time of t relative to now.
// Examples: "5 seconds ago", "2 minutes ago", "3 days ago".
func TimeAgo(t, now time.Time) string {
	diff := now.Sub(t)
	if diff < 0 {
		return "in the future"
	}

	for _, u := range agoUnits {
		if diff >= u.size {
			return plural(int(diff/u.size), u.name) + " ago"
		}
	}

	return plural(int(diff/time.Second), "second") + " ago"
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// FormatTimestamp returns a formatted timestamp string in UTC.
// Format: "2006-01-02 15:04:05 UTC".
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 UTC")
}

// FormatElapsed returns a short duration rounded to seconds, "-" when negative.
// Examples: "0s", "45s", "10m0s".
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}
