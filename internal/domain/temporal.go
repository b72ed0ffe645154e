package domain

import "time"

// DropFuture removes records dated today or later. The cutoff is the start of
// the current day in KST, taken from the package clock at call time, so the
// boundary moves with the wall clock rather than being frozen at startup.
//
// A record is kept iff its date, converted to KST, is strictly before that
// cutoff. Upstream sources disagreed on <= vs <; the strict rule is used
// everywhere so a partially-collected current day never leaks into output.
func DropFuture(records []Record) []Record {
	cutoff := StartOfToday()
	kept := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Date.In(KST).Before(cutoff) {
			kept = append(kept, r)
		}
	}
	return kept
}

// YearDate materializes a year number as January 1st, 00:00 KST. Yearly
// statistics carry no finer granularity.
func YearDate(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, KST)
}
