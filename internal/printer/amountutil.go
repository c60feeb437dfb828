package printer

import "fmt"

// FormatAmount returns a human-readable amount string using decimal units.
// Examples: "0", "512", "1.5K", "700.0M", "910.0B", "2.1T".
func FormatAmount(v float64) string {
	const (
		k = 1000
		m = 1000 * k
		b = 1000 * m
		t = 1000 * b
	)

	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	switch {
	case v >= t:
		return fmt.Sprintf("%s%.1fT", sign, v/t)
	case v >= b:
		return fmt.Sprintf("%s%.1fB", sign, v/b)
	case v >= m:
		return fmt.Sprintf("%s%.1fM", sign, v/m)
	case v >= k:
		return fmt.Sprintf("%s%.1fK", sign, v/k)
	default:
		return fmt.Sprintf("%s%.0f", sign, v)
	}
}

// FormatOptional formats an optional value with the given format, missing values are "-".
func FormatOptional(v *float64, format func(float64) string) string {
	if v == nil {
		return "-"
	}
	return format(*v)
}

// FormatRatio returns a ratio with 2 decimals.
func FormatRatio(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// FormatPercent returns a signed percentage with 2 decimals.
func FormatPercent(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}
