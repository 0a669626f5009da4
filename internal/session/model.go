// Package session holds the proctored-session model, its time-window
// classification, and the cursor-paginated catalog.
package session

import (
	"time"

	"councilportal/internal/geo"
)

// Type identifies the kind of council session.
type Type string

const (
	TypeHonorCode         Type = "Honor Code"
	TypeParliamentHearing Type = "Parliament Hearing"
	TypeAcademicIntegrity Type = "Academic Integrity Session"
)

// KnownType reports whether t is one of the recognized session types.
func KnownType(t Type) bool {
	switch t {
	case TypeHonorCode, TypeParliamentHearing, TypeAcademicIntegrity:
		return true
	}
	return false
}

// Session is one scheduled proctored event. Sessions are immutable once
// created; edits and deletion are handled elsewhere.
type Session struct {
	ID             string    `json:"id"`
	Type           Type      `json:"session_type"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	PINDisplayTime time.Time `json:"pin_display_time"`
	PIN            string    `json:"-"`
	Location       geo.Site  `json:"location"`
	Year           string    `json:"year,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Phase classifies a claim attempt against the session's window.
type Phase int

const (
	// PhaseTooEarly means the PIN has not been revealed yet.
	PhaseTooEarly Phase = iota
	// PhaseEligible means the PIN is active and the session is still open.
	PhaseEligible
	// PhaseExpired means the session is over.
	PhaseExpired
)

func (p Phase) String() string {
	switch p {
	case PhaseTooEarly:
		return "too early"
	case PhaseEligible:
		return "eligible"
	case PhaseExpired:
		return "expired"
	}
	return "unknown"
}

// WindowAt classifies now against the session's fixed instants. Each call is
// independent; there is no stored state beyond the session's timestamps.
// Boundary instants count as eligible.
func (s Session) WindowAt(now time.Time) Phase {
	if now.After(s.EndTime) {
		return PhaseExpired
	}
	if now.Before(s.PINDisplayTime) {
		return PhaseTooEarly
	}
	return PhaseEligible
}
