package triage

import (
	"math"
	"time"
)

// DefaultCacheTTL is how long an analysis stays valid.
const DefaultCacheTTL = 30 * time.Minute

// Validity describes a cache entry relative to a point in time.
type Validity struct {
	Valid     bool
	Age       time.Duration
	Remaining time.Duration
}

// AgeMinutes returns Age rounded to whole minutes.
func (v Validity) AgeMinutes() int {
	return roundMinutes(v.Age)
}

// RemainingMinutes returns Remaining rounded to whole minutes.
func (v Validity) RemainingMinutes() int {
	return roundMinutes(v.Remaining)
}

// ValidityAt reports whether an entry stored at storedAt is still valid at
// now. An entry stored in the future (clock skew) has age zero.
func ValidityAt(storedAt, now time.Time, ttl time.Duration) Validity {
	age := max(now.Sub(storedAt), 0)
	if age >= ttl {
		return Validity{Age: age}
	}
	return Validity{Valid: true, Age: age, Remaining: ttl - age}
}

func roundMinutes(d time.Duration) int {
	return int(math.Round(d.Minutes()))
}
