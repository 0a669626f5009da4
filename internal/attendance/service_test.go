package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"councilportal/internal/geo"
	"councilportal/internal/session"
)

type fakeSessions struct {
	sessions map[string]session.Session
}

func (f *fakeSessions) Get(_ context.Context, id string) (session.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return session.Session{}, session.ErrNotFound
	}
	return s, nil
}

// fakeRecords keeps at most one record per (user, session), mirroring the
// unique constraint the real store enforces.
type fakeRecords struct {
	records map[[2]string]Record
	writes  int
}

func (f *fakeRecords) Upsert(_ context.Context, userID, sessionID string, status Status, now time.Time) (Record, error) {
	if f.records == nil {
		f.records = map[[2]string]Record{}
	}
	f.writes++
	key := [2]string{userID, sessionID}
	rec, ok := f.records[key]
	if !ok {
		rec = Record{ID: "rec-" + userID + "-" + sessionID, UserID: userID, SessionID: sessionID}
	}
	rec.Status = status
	rec.Timestamp = now
	f.records[key] = rec
	return rec, nil
}

type fakeLocator struct {
	pos   geo.Position
	err   error
	calls int
}

func (f *fakeLocator) Current(context.Context) (geo.Position, error) {
	f.calls++
	return f.pos, f.err
}

var fencedSite = geo.Site{Name: "Room 101", Latitude: 5.761553, Longitude: -0.2150965}

func testSession() session.Session {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	return session.Session{
		ID:             "sess-1",
		Type:           session.TypeHonorCode,
		StartTime:      start,
		PINDisplayTime: start,
		EndTime:        start.Add(time.Hour),
		PIN:            "1234",
		Location:       fencedSite,
	}
}

func newVerifier(sess session.Session, records *fakeRecords, loc geo.Locator) *Service {
	return NewService(&fakeSessions{sessions: map[string]session.Session{sess.ID: sess}},
		records, loc, geo.FenceRadiusKm)
}

func atSite() *geo.Position {
	return &geo.Position{Latitude: fencedSite.Latitude, Longitude: fencedSite.Longitude}
}

func TestClaimAcceptedAndIdempotent(t *testing.T) {
	sess := testSession()
	records := &fakeRecords{}
	svc := newVerifier(sess, records, nil)
	now := sess.StartTime.Add(10 * time.Minute)

	req := ClaimRequest{SessionID: sess.ID, UserID: "user-1", PIN: "1234", Position: atSite()}
	for i := 0; i < 2; i++ {
		res, err := svc.Claim(context.Background(), req, now)
		if err != nil {
			t.Fatalf("claim %d: %v", i, err)
		}
		if !res.Accepted {
			t.Fatalf("claim %d rejected: %s", i, res.Reason)
		}
	}

	if len(records.records) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(records.records))
	}
	rec := records.records[[2]string{"user-1", sess.ID}]
	if rec.Status != StatusPresent {
		t.Fatalf("expected Present, got %s", rec.Status)
	}
}

func TestClaimExpiredRejectedBeforeGeolocation(t *testing.T) {
	sess := testSession()
	records := &fakeRecords{}
	loc := &fakeLocator{pos: geo.Position{Latitude: fencedSite.Latitude, Longitude: fencedSite.Longitude}}
	svc := newVerifier(sess, records, loc)

	res, err := svc.Claim(context.Background(),
		ClaimRequest{SessionID: sess.ID, UserID: "user-1", PIN: "1234"},
		sess.EndTime.Add(time.Minute))
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if res.Accepted || res.Reason != ReasonSessionEnded {
		t.Fatalf("expected session-ended rejection, got %+v", res)
	}
	if loc.calls != 0 {
		t.Fatalf("expired claim must not request geolocation")
	}
	if records.writes != 0 {
		t.Fatalf("rejection must not write a record")
	}
}

func TestClaimTooEarlyRejectedDespiteCorrectPINAndLocation(t *testing.T) {
	sess := testSession()
	sess.PINDisplayTime = sess.StartTime.Add(30 * time.Minute)
	records := &fakeRecords{}
	svc := newVerifier(sess, records, nil)

	res, err := svc.Claim(context.Background(),
		ClaimRequest{SessionID: sess.ID, UserID: "user-1", PIN: "1234", Position: atSite()},
		sess.StartTime.Add(5*time.Minute))
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if res.Accepted || res.Reason != ReasonPINNotActive {
		t.Fatalf("expected pin-not-active rejection, got %+v", res)
	}
	if records.writes != 0 {
		t.Fatalf("rejection must not write a record")
	}
}

func TestClaimLocationUnavailable(t *testing.T) {
	sess := testSession()
	records := &fakeRecords{}
	loc := &fakeLocator{err: errors.New("permission denied")}
	svc := newVerifier(sess, records, loc)

	res, err := svc.Claim(context.Background(),
		ClaimRequest{SessionID: sess.ID, UserID: "user-1", PIN: "1234"},
		sess.StartTime.Add(10*time.Minute))
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if res.Accepted || res.Reason != ReasonLocationUnavailable {
		t.Fatalf("expected location-unavailable rejection, got %+v", res)
	}
	if records.writes != 0 {
		t.Fatalf("rejection must not write a record")
	}
}

func TestClaimGeofenceBoundary(t *testing.T) {
	sess := testSession()
	now := sess.StartTime.Add(10 * time.Minute)

	// One degree of latitude is ~111.19 km; offsets chosen to land just
	// inside and just outside the 250 km fence.
	inside := &geo.Position{Latitude: fencedSite.Latitude + 249.0/111.19, Longitude: fencedSite.Longitude}
	outside := &geo.Position{Latitude: fencedSite.Latitude + 251.0/111.19, Longitude: fencedSite.Longitude}

	records := &fakeRecords{}
	svc := newVerifier(sess, records, nil)

	res, err := svc.Claim(context.Background(),
		ClaimRequest{SessionID: sess.ID, UserID: "user-1", PIN: "1234", Position: outside}, now)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if res.Accepted || res.Reason != ReasonWrongLocation {
		t.Fatalf("expected geofence rejection at 251 km, got %+v", res)
	}
	if records.writes != 0 {
		t.Fatalf("geofence rejection must not write a record")
	}

	res, err = svc.Claim(context.Background(),
		ClaimRequest{SessionID: sess.ID, UserID: "user-1", PIN: "1234", Position: inside}, now)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !res.Accepted {
		t.Fatalf("expected acceptance at 249 km, got %+v", res)
	}
	if res.Record == nil || res.Record.Status != StatusPresent {
		t.Fatalf("expected a Present record, got %+v", res.Record)
	}
}

func TestWrongPINThenCorrectPINLeavesOnePresentRecord(t *testing.T) {
	sess := testSession()
	records := &fakeRecords{}
	svc := newVerifier(sess, records, nil)
	now := sess.StartTime.Add(10 * time.Minute)

	res, err := svc.Claim(context.Background(),
		ClaimRequest{SessionID: sess.ID, UserID: "user-1", PIN: "9999", Position: atSite()}, now)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if res.Accepted || res.Reason != ReasonIncorrectPIN {
		t.Fatalf("expected incorrect-pin rejection, got %+v", res)
	}
	if records.writes != 0 {
		t.Fatalf("wrong pin must not create an Absent record")
	}

	res, err = svc.Claim(context.Background(),
		ClaimRequest{SessionID: sess.ID, UserID: "user-1", PIN: "1234", Position: atSite()}, now)
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !res.Accepted {
		t.Fatalf("expected acceptance, got %+v", res)
	}
	if len(records.records) != 1 {
		t.Fatalf("expected one record, got %d", len(records.records))
	}
	if rec := records.records[[2]string{"user-1", sess.ID}]; rec.Status != StatusPresent {
		t.Fatalf("expected Present, got %s", rec.Status)
	}
}

func TestClaimRequiresIdentity(t *testing.T) {
	svc := newVerifier(testSession(), &fakeRecords{}, nil)
	if _, err := svc.Claim(context.Background(), ClaimRequest{SessionID: "sess-1"}, time.Now()); err == nil {
		t.Fatalf("expected error for missing user id")
	}
}
