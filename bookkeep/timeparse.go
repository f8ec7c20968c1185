package bookkeep

import "time"

// TimestampLayout is the single canonical storage format for timestamps.
// All comparisons and date-range filters assume this shape, which sorts
// lexicographically in time order.
const TimestampLayout = "2006-01-02 15:04:05"

// acceptedLayouts are the input shapes we canonicalize. A bare date
// normalizes to midnight.
var acceptedLayouts = []string{
	"2006-01-02T15:04",    // HTML datetime-local input
	"2006-01-02 15:04",    // space-separated
	"2006-01-02T15:04:05", // T-separated with seconds
	"2006-01-02 15:04:05", // space-separated with seconds
	"2006-01-02",          // just the date
}

// NormalizeTimestamp rewrites a heterogeneous date/time string into
// TimestampLayout. The second return is false for empty or unparseable
// input; filter call sites treat that as "no constraint".
func NormalizeTimestamp(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	for _, layout := range acceptedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(TimestampLayout), true
		}
	}
	return "", false
}

// TimestampOrNow normalizes a timestamp meant to be persisted. An absent
// timestamp defaults to now; explicit but malformed input is dropped and
// comes back empty.
func TimestampOrNow(s string) string {
	if s == "" {
		return time.Now().Format(TimestampLayout)
	}
	out, ok := NormalizeTimestamp(s)
	if !ok {
		return ""
	}
	return out
}
