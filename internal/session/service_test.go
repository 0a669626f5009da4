package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"
)

// fakeRepo is an in-memory Repo for catalog and validation tests.
type fakeRepo struct {
	sessions []Session
	counts   map[string]int
}

func (f *fakeRepo) Insert(_ context.Context, s Session) (Session, error) {
	if s.ID == "" {
		s.ID = fmt.Sprintf("sess-%02d", len(f.sessions))
	}
	s.CreatedAt = time.Now().UTC()
	f.sessions = append(f.sessions, s)
	return s, nil
}

func (f *fakeRepo) Get(_ context.Context, id string) (Session, error) {
	for _, s := range f.sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return Session{}, ErrNotFound
}

func (f *fakeRepo) PageAfter(_ context.Context, after *pageKey, limit int) ([]Session, error) {
	ordered := make([]Session, len(f.sessions))
	copy(ordered, f.sessions)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].StartTime.Equal(ordered[j].StartTime) {
			return ordered[i].StartTime.After(ordered[j].StartTime)
		}
		return ordered[i].ID > ordered[j].ID
	})

	var out []Session
	for _, s := range ordered {
		if after != nil {
			key := pageKey{StartUnixNano: s.StartTime.UnixNano(), ID: s.ID}
			if key.StartUnixNano > after.StartUnixNano ||
				(key.StartUnixNano == after.StartUnixNano && key.ID >= after.ID) {
				continue
			}
		}
		out = append(out, s)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeRepo) CountBySession(_ context.Context, ids []string) (map[string]int, error) {
	out := make(map[string]int)
	for _, id := range ids {
		if n, ok := f.counts[id]; ok {
			out[id] = n
		}
	}
	return out, nil
}

func validInput(now time.Time) CreateInput {
	return CreateInput{
		Type:           TypeHonorCode,
		StartTime:      now.Add(time.Hour),
		PINDisplayTime: now.Add(90 * time.Minute),
		EndTime:        now.Add(2 * time.Hour),
		PIN:            "1234",
		LocationName:   "Room 101",
	}
}

func TestCreateValid(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, DefaultPageSize)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	created, err := svc.Create(context.Background(), validInput(now), now)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected an assigned id")
	}
	if created.Location.Name != "Room 101" || created.Location.Latitude == 0 {
		t.Fatalf("expected registered site to be resolved, got %+v", created.Location)
	}
}

func TestCreateRejections(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		mutate func(*CreateInput)
	}{
		{"unknown type", func(in *CreateInput) { in.Type = "Disco Night" }},
		{"short pin", func(in *CreateInput) { in.PIN = "123" }},
		{"non numeric pin", func(in *CreateInput) { in.PIN = "12a4" }},
		{"missing location", func(in *CreateInput) { in.LocationName = "" }},
		{"unknown location", func(in *CreateInput) { in.LocationName = "Room 999" }},
		{"end before start", func(in *CreateInput) { in.EndTime = in.StartTime.Add(-time.Minute) }},
		{"end equals start", func(in *CreateInput) { in.EndTime = in.StartTime }},
		{"pin display before start", func(in *CreateInput) { in.PINDisplayTime = in.StartTime.Add(-time.Minute) }},
		{"pin display after end", func(in *CreateInput) { in.PINDisplayTime = in.EndTime.Add(time.Minute) }},
		{"start in the past", func(in *CreateInput) {
			in.StartTime = now.Add(-2 * time.Hour)
			in.PINDisplayTime = now.Add(-time.Hour)
			in.EndTime = now.Add(time.Hour)
		}},
		{"missing times", func(in *CreateInput) { in.StartTime = time.Time{} }},
	}

	for _, tc := range cases {
		repo := &fakeRepo{}
		svc := NewService(repo, DefaultPageSize)
		in := validInput(now)
		tc.mutate(&in)
		_, err := svc.Create(context.Background(), in, now)
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
		if len(repo.sessions) != 0 {
			t.Fatalf("%s: rejected input must not be written", tc.name)
		}
	}
}

func TestListPaginates25SessionsWithoutGaps(t *testing.T) {
	repo := &fakeRepo{counts: map[string]int{}}
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		repo.sessions = append(repo.sessions, Session{
			ID:        fmt.Sprintf("sess-%02d", i),
			Type:      TypeHonorCode,
			StartTime: base.Add(time.Duration(i) * time.Hour),
			EndTime:   base.Add(time.Duration(i)*time.Hour + time.Hour),
		})
		repo.counts[fmt.Sprintf("sess-%02d", i)] = i % 3
	}

	svc := NewService(repo, DefaultPageSize)
	seen := map[string]bool{}
	var cursor string
	sizes := []int{}
	var prev *CatalogEntry

	for {
		page, err := svc.List(context.Background(), cursor)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(page.Items) == 0 {
			break
		}
		sizes = append(sizes, len(page.Items))
		for i := range page.Items {
			item := page.Items[i]
			if seen[item.ID] {
				t.Fatalf("session %s returned twice", item.ID)
			}
			seen[item.ID] = true
			if prev != nil && item.StartTime.After(prev.StartTime) {
				t.Fatalf("ordering violated: %s after %s", item.ID, prev.ID)
			}
			if item.AttendanceCount != repo.counts[item.ID] {
				t.Fatalf("session %s: expected count %d, got %d",
					item.ID, repo.counts[item.ID], item.AttendanceCount)
			}
			prev = &item
		}
		if page.NextCursor == "" {
			break
		}
		cursor = page.NextCursor
	}

	if len(sizes) != 3 || sizes[0] != 10 || sizes[1] != 10 || sizes[2] != 5 {
		t.Fatalf("expected pages 10/10/5, got %v", sizes)
	}
	if len(seen) != 25 {
		t.Fatalf("expected all 25 sessions exactly once, got %d", len(seen))
	}
}

func TestListBadCursorYieldsEmptyPage(t *testing.T) {
	repo := &fakeRepo{sessions: []Session{{ID: "sess-00", StartTime: time.Now().UTC()}}}
	svc := NewService(repo, DefaultPageSize)

	page, err := svc.List(context.Background(), "!!! definitely not a cursor")
	if err != nil {
		t.Fatalf("expected nil error for bad cursor, got %v", err)
	}
	if len(page.Items) != 0 || page.NextCursor != "" {
		t.Fatalf("expected empty page, got %+v", page)
	}
}
