package session

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a session id does not exist.
var ErrNotFound = errors.New("session not found")

// Repository persists sessions in Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repo.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const sessionColumns = `id, session_type, start_time, end_time, pin_display_time, pin,
	location_name, location_lat, location_lon, year, created_at`

// Insert writes a new session.
func (r *Repository) Insert(ctx context.Context, s Session) (Session, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO sessions (id, session_type, start_time, end_time, pin_display_time, pin,
			location_name, location_lat, location_lon, year)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at
	`, s.ID, string(s.Type), s.StartTime, s.EndTime, s.PINDisplayTime, s.PIN,
		s.Location.Name, s.Location.Latitude, s.Location.Longitude, s.Year)
	if err := row.Scan(&s.CreatedAt); err != nil {
		return Session{}, err
	}
	return s, nil
}

// Get returns a single session by id.
func (r *Repository) Get(ctx context.Context, id string) (Session, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+sessionColumns+` FROM sessions WHERE id = $1
	`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	return s, err
}

// PageAfter returns up to limit sessions ordered by start_time descending,
// id descending as tiebreak. A nil key means the first page; otherwise rows
// strictly below the key, so pages stay stable under inserts at the head.
func (r *Repository) PageAfter(ctx context.Context, after *pageKey, limit int) ([]Session, error) {
	var rows *sql.Rows
	var err error
	if after == nil {
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+sessionColumns+` FROM sessions
			ORDER BY start_time DESC, id DESC
			LIMIT $1
		`, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+sessionColumns+` FROM sessions
			WHERE (start_time, id) < ($1, $2)
			ORDER BY start_time DESC, id DESC
			LIMIT $3
		`, after.startTime(), after.ID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, rows.Err()
}

// CountBySession returns the number of attendance records per session id,
// computed in one aggregated query for the whole page.
func (r *Repository) CountBySession(ctx context.Context, ids []string) (map[string]int, error) {
	counts := make(map[string]int, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT session_id, COUNT(*)
		FROM user_attendance
		WHERE session_id = ANY($1)
		GROUP BY session_id
	`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (Session, error) {
	var s Session
	var typ string
	var start, end, pinAt, created time.Time
	err := row.Scan(&s.ID, &typ, &start, &end, &pinAt, &s.PIN,
		&s.Location.Name, &s.Location.Latitude, &s.Location.Longitude, &s.Year, &created)
	if err != nil {
		return Session{}, err
	}
	s.Type = Type(typ)
	s.StartTime = start.UTC()
	s.EndTime = end.UTC()
	s.PINDisplayTime = pinAt.UTC()
	s.CreatedAt = created.UTC()
	return s, nil
}
