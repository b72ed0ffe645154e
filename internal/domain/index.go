package domain

import "math"

// ExtinctionIndex computes young / old scaled by scale. The boolean is false
// when the result is undefined: zero denominator, or a non-finite value from
// float coercion. Undefined results must be excluded from aggregates, never
// recorded as zero.
func ExtinctionIndex(young, old, scale float64) (float64, bool) {
	if old == 0 {
		return 0, false
	}
	v := young / old * scale
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// Unit divisors for population display values, matching the dashboard's
// 명 / 천 명 / 만 명 selector.
const (
	UnitPerson      = "명"
	UnitThousand    = "천 명"
	UnitTenThousand = "만 명"
)

// ScaleUnit divides v by the divisor for the named unit. Unknown units are
// treated as 명 (no scaling).
func ScaleUnit(v float64, unit string) float64 {
	switch unit {
	case UnitThousand:
		return v / 1_000
	case UnitTenThousand:
		return v / 10_000
	default:
		return v
	}
}
