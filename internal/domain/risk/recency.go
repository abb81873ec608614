package risk

import "time"

// Recency decay breakpoints, in days of data age.  This is deliberately a
// step function rather than smooth decay so that the breakpoints are exactly
// reproducible in tests and across reimplementations.
const (
	recencyFreshDays     = 30
	recencyRecentDays    = 90
	recencyAgingDays     = 180
	recencyStaleDays     = 365
	recencyUnknownWeight = 0.5
)

// RecencyWeight maps a source's lastUpdated timestamp to a decay multiplier:
//
//	age ≤ 30d  → 1.0
//	age ≤ 90d  → 0.9
//	age ≤ 180d → 0.8
//	age ≤ 365d → 0.7
//	older      → 0.5
//
// A zero lastUpdated (unknown timestamp) yields 0.5.  The age is computed
// against the supplied asOf instant, not the wall clock, so the function is
// pure and assessments are reproducible.
func RecencyWeight(lastUpdated, asOf time.Time) float64 {
	if lastUpdated.IsZero() {
		return recencyUnknownWeight
	}
	ageDays := asOf.Sub(lastUpdated).Hours() / 24
	switch {
	case ageDays <= recencyFreshDays:
		return 1.0
	case ageDays <= recencyRecentDays:
		return 0.9
	case ageDays <= recencyAgingDays:
		return 0.8
	case ageDays <= recencyStaleDays:
		return 0.7
	default:
		return recencyUnknownWeight
	}
}
