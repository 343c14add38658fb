package jwtmw

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Identity is the authenticated caller taken from a verified token.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// Verifier validates access tokens.
type Verifier interface {
	Verify(tokenStr string) (Identity, error)
}

type verifier struct {
	secret []byte
	issuer string
}

// NewVerifier accepts only HS256 tokens signed with secret. An empty issuer
// disables the issuer check.
func NewVerifier(secret, issuer string) Verifier {
	return &verifier{secret: []byte(secret), issuer: issuer}
}

func (v *verifier) Verify(tokenStr string) (Identity, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := uuid.Parse(claims.Subject)
	if err != nil || id == uuid.Nil {
		return Identity{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return Identity{UserID: id, Email: claims.Email}, nil
}
