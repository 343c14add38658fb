package jwtmw

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestNewGenerator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		secret     string
		expiration time.Duration
	}{
		{"standard config", "my-secret-key", 15 * time.Minute},
		{"long expiration", "secret", 24 * time.Hour},
		{"short expiration", "s", time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := NewGenerator(tt.secret, "freshreceipt", tt.expiration).(*generator)

			if string(gen.secret) != tt.secret {
				t.Errorf("expected secret %q, got %q", tt.secret, string(gen.secret))
			}
			if gen.TTL() != tt.expiration {
				t.Errorf("expected expiration %v, got %v", tt.expiration, gen.TTL())
			}
		})
	}
}

func TestGenerator_GenerateToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		userID uuid.UUID
		email  string
	}{
		{"basic user", uuid.New(), "user@example.com"},
		{"user with special email", uuid.New(), "user+tag@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := NewGenerator("test-secret", "freshreceipt", time.Hour)
			tokenStr, err := gen.GenerateToken(tt.userID, tt.email)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var claims Claims
			token, err := jwt.ParseWithClaims(tokenStr, &claims, func(tok *jwt.Token) (any, error) {
				if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
					t.Errorf("unexpected signing method: %v", tok.Header["alg"])
				}
				return []byte("test-secret"), nil
			})
			if err != nil || !token.Valid {
				t.Fatalf("failed to parse token: %v", err)
			}

			if claims.Subject != tt.userID.String() {
				t.Errorf("expected sub %s, got %s", tt.userID, claims.Subject)
			}
			if claims.Email != tt.email {
				t.Errorf("expected email %q, got %q", tt.email, claims.Email)
			}
			if claims.Issuer != "freshreceipt" {
				t.Errorf("expected issuer freshreceipt, got %q", claims.Issuer)
			}
		})
	}
}

func TestGenerator_GenerateToken_Expiration(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	gen := &generator{secret: []byte("test-secret"), issuer: "freshreceipt", expiration: 2 * time.Hour, now: func() time.Time { return fixed }}

	tokenStr, err := gen.GenerateToken(uuid.New(), "test@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var claims Claims
	_, _, err = jwt.NewParser().ParseUnverified(tokenStr, &claims)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !claims.IssuedAt.Time.Equal(fixed) {
		t.Errorf("expected iat %v, got %v", fixed, claims.IssuedAt.Time)
	}
	if !claims.ExpiresAt.Time.Equal(fixed.Add(2 * time.Hour)) {
		t.Errorf("expected exp %v, got %v", fixed.Add(2*time.Hour), claims.ExpiresAt.Time)
	}
}

func TestGenerator_DifferentUsersProduceDifferentTokens(t *testing.T) {
	t.Parallel()

	gen := NewGenerator("test-secret", "freshreceipt", time.Hour)

	token1, _ := gen.GenerateToken(uuid.New(), "user1@example.com")
	token2, _ := gen.GenerateToken(uuid.New(), "user2@example.com")

	if token1 == token2 {
		t.Error("expected different tokens for different users")
	}
}
