package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// BearerPrefix is part of the token wire format.
const BearerPrefix = "Bearer "

// TokenCodec signs and verifies HS256 tokens. It has no notion of token kinds.
type TokenCodec struct {
	now func() time.Time
}

// NewTokenCodec builds a codec on the wall clock.
func NewTokenCodec() *TokenCodec {
	return &TokenCodec{now: time.Now}
}

// Create signs a token for subject that expires ttl from now.
// A zero or negative ttl yields a token that is already expired.
func (tc *TokenCodec) Create(key []byte, subject string, ttl time.Duration) (string, error) {
	now := tc.now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return BearerPrefix + signed, nil
}

// ExtractSubject verifies token under key and returns its subject.
// Every failure wraps ErrInvalidToken.
func (tc *TokenCodec) ExtractSubject(key []byte, token string) (string, error) {
	claims, err := tc.parse(key, token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Validate reports whether token verifies under key.
func (tc *TokenCodec) Validate(key []byte, token string) bool {
	_, err := tc.parse(key, token)
	return err == nil
}

// parse is the only place a token is declared valid: signature and expiry are checked together.
func (tc *TokenCodec) parse(key []byte, token string) (*jwt.RegisteredClaims, error) {
	raw, ok := strings.CutPrefix(token, BearerPrefix)
	if !ok || raw == "" {
		return nil, ErrMalformedToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(tc.now),
	)

	claims := &jwt.RegisteredClaims{}
	parsed, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return key, nil
	})
	if err != nil {
		return nil, classify(err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredToken
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	default:
		return fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
}
