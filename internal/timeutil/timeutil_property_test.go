package timeutil

import (
	"testing"
	"time"

	"pgregory.net/rapid"
)

// Feature: time arithmetic, Property 1: Date/Time-of-Day Round-Trip
// *For any* local timestamp with a zero sub-minute remainder,
// Combine(DateKey(t), TimeOfDay(t)) SHALL equal t.
func TestProperty1_CombineRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		year := rapid.IntRange(2000, 2040).Draw(rt, "year")
		month := time.Month(rapid.IntRange(1, 12).Draw(rt, "month"))
		day := rapid.IntRange(1, 28).Draw(rt, "day")
		hour := rapid.IntRange(0, 23).Draw(rt, "hour")
		minute := rapid.IntRange(0, 59).Draw(rt, "minute")

		ts := time.Date(year, month, day, hour, minute, 0, 0, time.Local)

		// Wall times inside a DST transition do not map back to a single
		// instant, so only assert away from offset changes.
		_, before := ts.Add(-2 * time.Hour).Zone()
		_, after := ts.Add(2 * time.Hour).Zone()
		if before != after {
			return
		}

		got, err := Combine(DateKey(ts), TimeOfDay(ts))
		if err != nil {
			rt.Fatalf("Combine: %v", err)
		}
		if !got.Equal(ts) {
			rt.Errorf("round trip = %v, want %v", got, ts)
		}
	})
}

// Feature: time arithmetic, Property 2: Formatted Durations Are Non-Negative
// *For any* integer number of seconds, FormatDuration SHALL never render a
// negative component.
func TestProperty2_FormatDurationNonNegative(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		secs := rapid.Int64Range(-1_000_000, 1_000_000).Draw(rt, "secs")
		out := FormatDuration(secs)
		for _, r := range out {
			if r == '-' {
				rt.Fatalf("FormatDuration(%d) = %q contains a minus sign", secs, out)
			}
		}
	})
}
