// Package portal covers the council's submission forms: complaints,
// misconduct reports, rule-change proposals, and meeting bookings against
// the member roster. These are create/read flows with field validation.
package portal

import "time"

// Complaint is a student-filed grievance.
type Complaint struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// MisconductReport accuses a named party of a code violation.
type MisconductReport struct {
	ID          string    `json:"id"`
	ReporterID  string    `json:"reporter_id"`
	AccusedName string    `json:"accused_name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// RuleChangeProposal suggests an amendment to the council's rules.
type RuleChangeProposal struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Rule      string    `json:"rule"`
	Rationale string    `json:"rationale"`
	CreatedAt time.Time `json:"created_at"`
}

// Person is a bookable council member from the roster.
type Person struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role,omitempty"`
}

// Meeting is a booked slot with a council member.
type Meeting struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	PersonName string    `json:"person_name"`
	StartTime  time.Time `json:"start_time"`
	EndTime    time.Time `json:"end_time"`
	Purpose    string    `json:"purpose"`
	CreatedAt  time.Time `json:"created_at"`
}
