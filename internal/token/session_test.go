package token

import (
	"errors"
	"testing"
	"time"
)

func TestSessionCodec_MintAndVerify(t *testing.T) {
	codec := NewSessionCodec("session-secret", time.Hour)

	tok, err := codec.Mint(42, "alice@vanderbilt.edu")
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	claims, err := codec.Verify(tok)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}

	id, err := claims.UserID()
	if err != nil {
		t.Fatalf("UserID() error = %v", err)
	}
	if id != 42 {
		t.Errorf("UserID() = %d, want 42", id)
	}
	if claims.Email != "alice@vanderbilt.edu" {
		t.Errorf("Email = %q, want %q", claims.Email, "alice@vanderbilt.edu")
	}
}

func TestSessionCodec_Verify_Invalid(t *testing.T) {
	codec := NewSessionCodec("session-secret", time.Hour)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not-a-real-token"},
		{name: "not a jwt", token: "aaa.bbb.ccc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := codec.Verify(tt.token); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify(%q) error = %v, want ErrInvalidToken", tt.token, err)
			}
		})
	}
}

func TestSessionCodec_Verify_WrongSecret(t *testing.T) {
	codec := NewSessionCodec("secret-a", time.Hour)
	other := NewSessionCodec("secret-b", time.Hour)

	tok, err := codec.Mint(1, "alice@vanderbilt.edu")
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if _, err := other.Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
	}
}

func TestSessionCodec_Verify_Expired(t *testing.T) {
	codec := NewSessionCodec("session-secret", time.Hour)

	minted := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	codec.now = func() time.Time { return minted }
	tok, err := codec.Mint(1, "alice@vanderbilt.edu")
	if err != nil {
		t.Fatalf("Mint() error = %v", err)
	}

	codec.now = func() time.Time { return minted.Add(2 * time.Hour) }
	if _, err := codec.Verify(tok); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Verify() after expiry error = %v, want ErrExpiredToken", err)
	}
}
