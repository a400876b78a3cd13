package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := NewToken("test-secret", "user-123", time.Hour)
	if err != nil {
		t.Fatalf("NewToken: %v", err)
	}

	claims, err := ParseToken("test-secret", token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Subject != "user-123" {
		t.Errorf("subject = %q, want %q", claims.Subject, "user-123")
	}
	if claims.ExpiresAt == nil || !claims.ExpiresAt.After(time.Now()) {
		t.Errorf("expected a future expiry, got %v", claims.ExpiresAt)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := NewToken("test-secret", "user-123", time.Hour)
	if err != nil {
		t.Fatalf("NewToken: %v", err)
	}
	if _, err := ParseToken("another-secret", token); err == nil {
		t.Fatal("expected an error for a token signed with a different secret")
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, err := NewToken("test-secret", "user-123", -time.Minute)
	if err != nil {
		t.Fatalf("NewToken: %v", err)
	}
	if _, err := ParseToken("test-secret", token); err == nil {
		t.Fatal("expected an error for an expired token")
	}
}

func TestParseTokenGarbage(t *testing.T) {
	if _, err := ParseToken("test-secret", "not-a-token"); err == nil {
		t.Fatal("expected an error for a malformed token")
	}
}
