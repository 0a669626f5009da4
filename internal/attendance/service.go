package attendance

import (
	"context"
	"errors"
	"time"

	"councilportal/internal/geo"
	"councilportal/internal/session"
)

// Rejection reasons surfaced to the claimant. Callers render the text;
// nothing else depends on its structure.
const (
	ReasonSessionEnded        = "This session has already ended."
	ReasonLocationUnavailable = "Could not retrieve your location."
	ReasonWrongLocation       = "You are not at the required location."
	ReasonPINNotActive        = "It is not time to enter the pin yet."
	ReasonIncorrectPIN        = "Incorrect pin."
)

// SessionGetter fetches the claimed session.
type SessionGetter interface {
	Get(ctx context.Context, id string) (session.Session, error)
}

// RecordStore is the sole write path for attendance outcomes.
type RecordStore interface {
	Upsert(ctx context.Context, userID, sessionID string, status Status, now time.Time) (Record, error)
}

// ClaimRequest is one user's assertion of presence at a session.
type ClaimRequest struct {
	SessionID string
	UserID    string
	PIN       string
	// Position is the device-reported location. When nil the service falls
	// back to its injected Locator.
	Position *geo.Position
}

// Result is the tagged claim outcome.
type Result struct {
	Accepted bool    `json:"accepted"`
	Reason   string  `json:"reason,omitempty"`
	Record   *Record `json:"record,omitempty"`
}

// Service decides whether a claim is accepted and records the outcome.
type Service struct {
	sessions SessionGetter
	records  RecordStore
	locator  geo.Locator
	fenceKm  float64
}

// NewService creates the verifier. locator may be nil when all callers
// supply coordinates in the request.
func NewService(sessions SessionGetter, records RecordStore, locator geo.Locator, fenceKm float64) *Service {
	if fenceKm <= 0 {
		fenceKm = geo.FenceRadiusKm
	}
	return &Service{sessions: sessions, records: records, locator: locator, fenceKm: fenceKm}
}

// Claim runs the verification sequence in order, short-circuiting on the
// first failure. Only an accepted claim writes state; every rejection leaves
// the attendance ledger untouched.
func (s *Service) Claim(ctx context.Context, req ClaimRequest, now time.Time) (Result, error) {
	if req.UserID == "" || req.SessionID == "" {
		return Result{}, errors.New("user and session required")
	}

	sess, err := s.sessions.Get(ctx, req.SessionID)
	if err != nil {
		claimsTotal.WithLabelValues(outcomeError).Inc()
		return Result{}, err
	}

	// Expiry comes before any location work so an obviously dead claim
	// never triggers a geolocation permission prompt.
	if sess.WindowAt(now) == session.PhaseExpired {
		claimsTotal.WithLabelValues(outcomeExpired).Inc()
		return Result{Reason: ReasonSessionEnded}, nil
	}

	pos, ok := s.resolvePosition(ctx, req)
	if !ok {
		claimsTotal.WithLabelValues(outcomeLocationUnavailable).Inc()
		return Result{Reason: ReasonLocationUnavailable}, nil
	}

	dist := geo.Distance(pos.Latitude, pos.Longitude,
		sess.Location.Latitude, sess.Location.Longitude)
	if dist > s.fenceKm {
		claimsTotal.WithLabelValues(outcomeGeofence).Inc()
		return Result{Reason: ReasonWrongLocation}, nil
	}

	if sess.WindowAt(now) == session.PhaseTooEarly {
		claimsTotal.WithLabelValues(outcomeTooEarly).Inc()
		return Result{Reason: ReasonPINNotActive}, nil
	}

	// Exact string comparison. A wrong attempt writes nothing: it must not
	// flip status to Present nor plant a premature Absent record.
	if req.PIN != sess.PIN {
		claimsTotal.WithLabelValues(outcomePinMismatch).Inc()
		return Result{Reason: ReasonIncorrectPIN}, nil
	}

	rec, err := s.records.Upsert(ctx, req.UserID, req.SessionID, StatusPresent, now)
	if err != nil {
		claimsTotal.WithLabelValues(outcomeError).Inc()
		return Result{}, err
	}
	claimsTotal.WithLabelValues(outcomeAccepted).Inc()
	return Result{Accepted: true, Record: &rec}, nil
}

func (s *Service) resolvePosition(ctx context.Context, req ClaimRequest) (geo.Position, bool) {
	if req.Position != nil {
		return *req.Position, true
	}
	if s.locator == nil {
		return geo.Position{}, false
	}
	pos, err := s.locator.Current(ctx)
	if err != nil {
		return geo.Position{}, false
	}
	return pos, true
}
