package auth

import (
	"errors"
	"testing"
	"time"
)

func TestHashAndComparePassword(t *testing.T) {
	hashed, err := HashPassword("hunter22", 4)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if hashed == "hunter22" {
		t.Fatal("hash must not equal the plaintext")
	}
	if err := ComparePassword(hashed, "hunter22"); err != nil {
		t.Fatalf("ComparePassword with correct password: %v", err)
	}
	if err := ComparePassword(hashed, "wrong"); err == nil {
		t.Fatal("ComparePassword must fail for a wrong password")
	}
}

func TestHashPasswordInvalidCostFallsBack(t *testing.T) {
	hashed, err := HashPassword("hunter22", 99)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := ComparePassword(hashed, "hunter22"); err != nil {
		t.Fatalf("ComparePassword: %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)

	token, err := svc.Generate("user-1", "ana@example.com")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	claims, err := svc.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.UserID != "user-1" || claims.Email != "ana@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewTokenService("secret-a", time.Hour).Generate("user-1", "ana@example.com")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, err := NewTokenService("secret-b", time.Hour).Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestTokenExpired(t *testing.T) {
	svc := NewTokenService("test-secret", -time.Minute)

	token, err := svc.Generate("user-1", "ana@example.com")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, err := svc.Validate(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestTokenGarbage(t *testing.T) {
	svc := NewTokenService("test-secret", time.Hour)
	if _, err := svc.Validate("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
