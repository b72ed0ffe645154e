package domain

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// clock is a package-level time source so tests can freeze time via SetClock.
// Production code uses the real clock; tests inject a fake for deterministic output.
var clock = clockwork.NewRealClock()

// SetClock swaps the time source for temporal filtering. Pass nil to reset to real time.
func SetClock(c clockwork.Clock) {
	if c == nil {
		clock = clockwork.NewRealClock()
		return
	}
	clock = c
}

// KST is the reference timezone for every timestamp in the system. All source
// data is Korean administrative statistics, so naive dates are interpreted as
// Korea Standard Time and foreign-zone timestamps are converted before any
// comparison.
var KST = loadKST()

func loadKST() *time.Location {
	loc, err := time.LoadLocation("Asia/Seoul")
	if err != nil {
		// KST has had no DST since 1988; a fixed offset is equivalent.
		return time.FixedZone("KST", 9*60*60)
	}
	return loc
}

// Now returns the current wall-clock time in KST.
func Now() time.Time {
	return clock.Now().In(KST)
}

// StartOfToday returns midnight of the current day in KST, re-evaluated on
// every call so long-running processes never serve a stale cutoff.
func StartOfToday() time.Time {
	now := Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, KST)
}
