package attendance

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Repository persists attendance records and the audit trail in Postgres.
// It is the only write path for the user_attendance collection.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Upsert writes the status for (userID, sessionID), creating the record on
// first claim and updating it in place afterwards. The unique pair
// constraint makes this a single atomic conditional write, so racing claims
// for the same pair cannot produce duplicates.
func (r *Repository) Upsert(ctx context.Context, userID, sessionID string, status Status, now time.Time) (Record, error) {
	rec := Record{
		ID:        uuid.NewString(),
		UserID:    userID,
		SessionID: sessionID,
		Status:    status,
		Timestamp: now.UTC(),
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO user_attendance (id, user_id, session_id, status, recorded_at)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (user_id, session_id) DO UPDATE SET
			status = EXCLUDED.status,
			recorded_at = EXCLUDED.recorded_at
		RETURNING id
	`, rec.ID, rec.UserID, rec.SessionID, string(rec.Status), rec.Timestamp)
	if err := row.Scan(&rec.ID); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Get returns the record for (userID, sessionID), or nil when the user has
// no outcome yet.
func (r *Repository) Get(ctx context.Context, userID, sessionID string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, session_id, status, recorded_at
		FROM user_attendance
		WHERE user_id = $1 AND session_id = $2
	`, userID, sessionID)
	var rec Record
	var status string
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.SessionID, &status, &rec.Timestamp); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	rec.Status = Status(status)
	rec.Timestamp = rec.Timestamp.UTC()
	return &rec, nil
}

// StatusBySession returns the user's status keyed by session id, used to
// mark catalog rows. Sessions without a record are implicitly Absent.
func (r *Repository) StatusBySession(ctx context.Context, userID string) (map[string]Status, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT session_id, status FROM user_attendance WHERE user_id = $1
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]Status{}
	for rows.Next() {
		var id, status string
		if err := rows.Scan(&id, &status); err != nil {
			return nil, err
		}
		out[id] = Status(status)
	}
	return out, rows.Err()
}

// Summarize aggregates a user's records, optionally limited to one cohort
// year via the session table.
func (r *Repository) Summarize(ctx context.Context, userID, year string) (Summary, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE ua.status = 'Present')
		FROM user_attendance ua
		JOIN sessions s ON s.id = ua.session_id
		WHERE ua.user_id = $1 AND ($2 = '' OR s.year = $2)
	`, userID, year)
	var sum Summary
	if err := row.Scan(&sum.Total, &sum.Present); err != nil {
		return Summary{}, err
	}
	sum.Absent = sum.Total - sum.Present
	return sum, nil
}

// InsertAudit appends one claim decision to the audit trail.
func (r *Repository) InsertAudit(ctx context.Context, evt AuditEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO attendance_audit (id, user_id, session_id, accepted, reason, occurred_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, uuid.NewString(), evt.UserID, evt.SessionID, evt.Accepted, evt.Reason, evt.At.UTC())
	return err
}
