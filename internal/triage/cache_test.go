package triage

import (
	"testing"
	"time"
)

func TestValidityAt(t *testing.T) {
	stored := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		now           time.Time
		wantValid     bool
		wantAge       int
		wantRemaining int
	}{
		{"fresh", stored, true, 0, 30},
		{"rounds", stored.Add(14*time.Minute + 31*time.Second), true, 15, 15},
		{"last second", stored.Add(DefaultCacheTTL - time.Second), true, 30, 0},
		{"expired at ttl", stored.Add(DefaultCacheTTL), false, 30, 0},
		{"future entry", stored.Add(-5 * time.Minute), true, 0, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ValidityAt(stored, tt.now, DefaultCacheTTL)
			if v.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v", v.Valid, tt.wantValid)
			}
			if got := v.AgeMinutes(); got != tt.wantAge {
				t.Errorf("AgeMinutes() = %d, want %d", got, tt.wantAge)
			}
			if got := v.RemainingMinutes(); got != tt.wantRemaining {
				t.Errorf("RemainingMinutes() = %d, want %d", got, tt.wantRemaining)
			}
		})
	}
}

func TestMidnight(t *testing.T) {
	loc := time.FixedZone("test", 2*60*60)
	got := Midnight(time.Date(2026, 5, 6, 23, 59, 1, 5, loc))
	want := time.Date(2026, 5, 6, 0, 0, 0, 0, loc)
	if !got.Equal(want) || got.Location() != loc {
		t.Errorf("Midnight() = %v, want %v", got, want)
	}
}
