// Package attendance verifies session attendance claims and keeps the
// one-record-per-(user, session) attendance ledger.
package attendance

import "time"

// Status is a user's recorded outcome for a session. Absence of a record is
// equivalent to Absent.
type Status string

const (
	StatusPresent Status = "Present"
	StatusAbsent  Status = "Absent"
)

// Record is one user's outcome for one session. (UserID, SessionID) is a
// natural key: at most one record exists per pair.
type Record struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Summary aggregates a user's attendance over their cohort's sessions.
type Summary struct {
	Total   int `json:"total"`
	Present int `json:"present"`
	Absent  int `json:"absent"`
}

// AuditEvent is published for every claim decision and persisted by the
// worker into the audit trail.
type AuditEvent struct {
	UserID    string    `json:"user_id"`
	SessionID string    `json:"session_id"`
	Accepted  bool      `json:"accepted"`
	Reason    string    `json:"reason,omitempty"`
	At        time.Time `json:"at"`
}
