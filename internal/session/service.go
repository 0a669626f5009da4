package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"councilportal/internal/geo"
)

// ErrValidation marks user-facing creation errors; handlers map it to 400.
var ErrValidation = errors.New("invalid session")

// DefaultPageSize is the catalog page size.
const DefaultPageSize = 10

// Repo is the storage surface the catalog needs.
type Repo interface {
	Insert(ctx context.Context, s Session) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
	PageAfter(ctx context.Context, after *pageKey, limit int) ([]Session, error)
	CountBySession(ctx context.Context, ids []string) (map[string]int, error)
}

// Service validates session creation and serves the paginated catalog.
type Service struct {
	repo     Repo
	pageSize int
}

// NewService creates a service backed by a repository.
func NewService(repo Repo, pageSize int) *Service {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Service{repo: repo, pageSize: pageSize}
}

// CreateInput carries the administrator's new-session form.
type CreateInput struct {
	Type           Type      `json:"session_type"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
	PINDisplayTime time.Time `json:"pin_display_time"`
	PIN            string    `json:"pin"`
	LocationName   string    `json:"location"`
	Year           string    `json:"year"`
}

// Create validates and persists a new session. Any rule violation rejects
// the write with ErrValidation and performs no partial write.
func (s *Service) Create(ctx context.Context, in CreateInput, now time.Time) (Session, error) {
	if !KnownType(in.Type) {
		return Session{}, fmt.Errorf("%w: unrecognized session type", ErrValidation)
	}
	if !validPIN(in.PIN) {
		return Session{}, fmt.Errorf("%w: pin must be 4 digits", ErrValidation)
	}
	if in.StartTime.IsZero() || in.EndTime.IsZero() || in.PINDisplayTime.IsZero() {
		return Session{}, fmt.Errorf("%w: start, end and pin display times are required", ErrValidation)
	}
	if in.LocationName == "" {
		return Session{}, fmt.Errorf("%w: location is required", ErrValidation)
	}
	if !in.EndTime.After(in.StartTime) {
		return Session{}, fmt.Errorf("%w: end time must be after start time", ErrValidation)
	}
	if in.PINDisplayTime.Before(in.StartTime) || in.PINDisplayTime.After(in.EndTime) {
		return Session{}, fmt.Errorf("%w: pin display time must be between session start and end time", ErrValidation)
	}
	if !in.StartTime.After(now) || !in.EndTime.After(now) || !in.PINDisplayTime.After(now) {
		return Session{}, fmt.Errorf("%w: session times must be in the future", ErrValidation)
	}
	site, ok := geo.SiteByName(in.LocationName)
	if !ok {
		return Session{}, fmt.Errorf("%w: unknown location %q", ErrValidation, in.LocationName)
	}

	return s.repo.Insert(ctx, Session{
		Type:           in.Type,
		StartTime:      in.StartTime.UTC(),
		EndTime:        in.EndTime.UTC(),
		PINDisplayTime: in.PINDisplayTime.UTC(),
		PIN:            in.PIN,
		Location:       site,
		Year:           in.Year,
	})
}

func validPIN(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for i := 0; i < len(pin); i++ {
		if pin[i] < '0' || pin[i] > '9' {
			return false
		}
	}
	return true
}

// Get returns one session by id.
func (s *Service) Get(ctx context.Context, id string) (Session, error) {
	return s.repo.Get(ctx, id)
}

// CatalogEntry is a listed session with its attendance count joined in.
type CatalogEntry struct {
	Session
	AttendanceCount int `json:"attendance_count"`
}

// Page is one catalog page. NextCursor is empty on the final page.
type Page struct {
	Items      []CatalogEntry `json:"items"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// List serves sessions in descending start-time order, page size fixed at
// construction. An empty cursor starts from the newest session. A cursor
// that no longer decodes yields an empty page, not an error: the token may
// have been invalidated since it was handed out.
func (s *Service) List(ctx context.Context, cursor string) (Page, error) {
	var after *pageKey
	if cursor != "" {
		k, err := decodeCursor(cursor)
		if err != nil {
			return Page{}, nil
		}
		after = &k
	}

	sessions, err := s.repo.PageAfter(ctx, after, s.pageSize)
	if err != nil {
		return Page{}, err
	}
	if len(sessions) == 0 {
		return Page{}, nil
	}

	ids := make([]string, len(sessions))
	for i, sess := range sessions {
		ids[i] = sess.ID
	}
	counts, err := s.repo.CountBySession(ctx, ids)
	if err != nil {
		return Page{}, err
	}

	page := Page{Items: make([]CatalogEntry, len(sessions))}
	for i, sess := range sessions {
		page.Items[i] = CatalogEntry{Session: sess, AttendanceCount: counts[sess.ID]}
	}
	if len(sessions) == s.pageSize {
		last := sessions[len(sessions)-1]
		page.NextCursor = encodeCursor(pageKey{
			StartUnixNano: last.StartTime.UnixNano(),
			ID:            last.ID,
		})
	}
	return page, nil
}
