package jwtmw

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims are the access token claims. Subject carries the user id.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Generator defines the interface for JWT token generation.
type Generator interface {
	// GenerateToken creates a signed access token for the given user.
	GenerateToken(userID uuid.UUID, email string) (string, error)
	// TTL reports how long issued tokens stay valid.
	TTL() time.Duration
}

type generator struct {
	secret     []byte
	issuer     string
	expiration time.Duration
	now        func() time.Time
}

// NewGenerator creates a generator signing with HS256.
func NewGenerator(secret, issuer string, expiration time.Duration) Generator {
	return &generator{
		secret:     []byte(secret),
		issuer:     issuer,
		expiration: expiration,
		now:        time.Now,
	}
}

func (g *generator) GenerateToken(userID uuid.UUID, email string) (string, error) {
	now := g.now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Issuer:    g.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(g.expiration)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(g.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (g *generator) TTL() time.Duration {
	return g.expiration
}
