package portal

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Repository persists portal submissions in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// UpsertUser ensures a user row exists with the given role.
func (r *Repository) UpsertUser(ctx context.Context, userID, role string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, role)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET role = EXCLUDED.role
	`, userID, role)
	return err
}

// InsertComplaint writes a new complaint.
func (r *Repository) InsertComplaint(ctx context.Context, c Complaint) (Complaint, error) {
	c.ID = uuid.NewString()
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO complaints (id, user_id, subject, description)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, c.ID, c.UserID, c.Subject, c.Description)
	if err := row.Scan(&c.CreatedAt); err != nil {
		return Complaint{}, err
	}
	return c, nil
}

// InsertMisconductReport writes a new misconduct report.
func (r *Repository) InsertMisconductReport(ctx context.Context, m MisconductReport) (MisconductReport, error) {
	m.ID = uuid.NewString()
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO misconduct_reports (id, reporter_id, accused_name, description)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, m.ID, m.ReporterID, m.AccusedName, m.Description)
	if err := row.Scan(&m.CreatedAt); err != nil {
		return MisconductReport{}, err
	}
	return m, nil
}

// InsertRuleChange writes a new rule-change proposal.
func (r *Repository) InsertRuleChange(ctx context.Context, p RuleChangeProposal) (RuleChangeProposal, error) {
	p.ID = uuid.NewString()
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO rule_changes (id, user_id, rule, rationale)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, p.ID, p.UserID, p.Rule, p.Rationale)
	if err := row.Scan(&p.CreatedAt); err != nil {
		return RuleChangeProposal{}, err
	}
	return p, nil
}

// ListComplaints returns filed complaints, newest first.
func (r *Repository) ListComplaints(ctx context.Context) ([]Complaint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, subject, description, created_at
		FROM complaints ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Complaint
	for rows.Next() {
		var c Complaint
		if err := rows.Scan(&c.ID, &c.UserID, &c.Subject, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListMisconductReports returns filed reports, newest first.
func (r *Repository) ListMisconductReports(ctx context.Context) ([]MisconductReport, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, reporter_id, accused_name, description, created_at
		FROM misconduct_reports ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MisconductReport
	for rows.Next() {
		var m MisconductReport
		if err := rows.Scan(&m.ID, &m.ReporterID, &m.AccusedName, &m.Description, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListRuleChanges returns filed proposals, newest first.
func (r *Repository) ListRuleChanges(ctx context.Context) ([]RuleChangeProposal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, rule, rationale, created_at
		FROM rule_changes ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RuleChangeProposal
	for rows.Next() {
		var p RuleChangeProposal
		if err := rows.Scan(&p.ID, &p.UserID, &p.Rule, &p.Rationale, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// InsertPerson adds a roster member.
func (r *Repository) InsertPerson(ctx context.Context, p Person) (Person, error) {
	p.ID = uuid.NewString()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO persons (id, name, role)
		VALUES ($1,$2,$3)
	`, p.ID, p.Name, p.Role)
	if err != nil {
		return Person{}, err
	}
	return p, nil
}

// DeletePerson removes a roster member by id. The second return reports
// whether a row existed.
func (r *Repository) DeletePerson(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM persons WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ListPersons returns the bookable roster ordered by name.
func (r *Repository) ListPersons(ctx context.Context) ([]Person, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, role FROM persons ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Person
	for rows.Next() {
		var p Person
		if err := rows.Scan(&p.ID, &p.Name, &p.Role); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PersonExists reports whether a roster member with the given name exists.
func (r *Repository) PersonExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM persons WHERE name = $1)
	`, name).Scan(&exists)
	return exists, err
}

// InsertMeeting writes a new booking.
func (r *Repository) InsertMeeting(ctx context.Context, m Meeting) (Meeting, error) {
	m.ID = uuid.NewString()
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO meetings (id, user_id, person_name, start_time, end_time, purpose)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at
	`, m.ID, m.UserID, m.PersonName, m.StartTime.UTC(), m.EndTime.UTC(), m.Purpose)
	if err := row.Scan(&m.CreatedAt); err != nil {
		return Meeting{}, err
	}
	return m, nil
}

// ListMeetings returns a user's bookings, newest first.
func (r *Repository) ListMeetings(ctx context.Context, userID string) ([]Meeting, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, person_name, start_time, end_time, purpose, created_at
		FROM meetings WHERE user_id = $1
		ORDER BY start_time DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Meeting
	for rows.Next() {
		var m Meeting
		var start, end time.Time
		if err := rows.Scan(&m.ID, &m.UserID, &m.PersonName, &start, &end, &m.Purpose, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.StartTime = start.UTC()
		m.EndTime = end.UTC()
		out = append(out, m)
	}
	return out, rows.Err()
}
