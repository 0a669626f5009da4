package session

import (
	"testing"
	"time"
)

func TestCursorRoundTrip(t *testing.T) {
	k := pageKey{
		StartUnixNano: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC).UnixNano(),
		ID:            "sess-10",
	}
	decoded, err := decodeCursor(encodeCursor(k))
	if err != nil {
		t.Fatalf("decode cursor: %v", err)
	}
	if decoded != k {
		t.Fatalf("expected %+v, got %+v", k, decoded)
	}
	if !decoded.startTime().Equal(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected start time %v", decoded.startTime())
	}
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	for _, token := range []string{"not base64 !!", "YWJj", ""} {
		if _, err := decodeCursor(token); err == nil {
			t.Fatalf("expected decode of %q to fail", token)
		}
	}
}
