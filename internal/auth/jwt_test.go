package auth

import (
	"testing"
	"time"
)

func TestIssueParseRoundTrip(t *testing.T) {
	pair, err := Issue("user-1", RoleJECR, "councilportal", "test-key", 15*time.Minute, 24*time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := Parse(pair.AccessToken, "test-key", "councilportal")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != RoleJECR {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	pair, err := Issue("user-1", RoleNormal, "other-app", "test-key", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Parse(pair.AccessToken, "test-key", "councilportal"); err == nil {
		t.Fatalf("expected issuer mismatch")
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	pair, err := Issue("user-1", RoleNormal, "councilportal", "test-key", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Parse(pair.AccessToken, "another-key", "councilportal"); err == nil {
		t.Fatalf("expected signature failure")
	}
}

func TestIssueRejectsUnknownRole(t *testing.T) {
	if _, err := Issue("user-1", "owner", "councilportal", "test-key", time.Minute, time.Hour); err == nil {
		t.Fatalf("expected unknown role to be rejected")
	}
}
