package session

import (
	"testing"
	"time"
)

func TestWindowAt(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	s := Session{
		StartTime:      start,
		PINDisplayTime: start.Add(30 * time.Minute),
		EndTime:        start.Add(time.Hour),
	}

	cases := []struct {
		name string
		now  time.Time
		want Phase
	}{
		{"before pin reveal", start.Add(10 * time.Minute), PhaseTooEarly},
		{"at pin reveal", s.PINDisplayTime, PhaseEligible},
		{"mid window", start.Add(45 * time.Minute), PhaseEligible},
		{"at end", s.EndTime, PhaseEligible},
		{"after end", s.EndTime.Add(time.Second), PhaseExpired},
		{"before start", start.Add(-time.Hour), PhaseTooEarly},
	}
	for _, tc := range cases {
		if got := s.WindowAt(tc.now); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestKnownType(t *testing.T) {
	for _, typ := range []Type{TypeHonorCode, TypeParliamentHearing, TypeAcademicIntegrity} {
		if !KnownType(typ) {
			t.Fatalf("expected %q to be recognized", typ)
		}
	}
	if KnownType("Disco Night") {
		t.Fatalf("expected unknown type to be rejected")
	}
}
