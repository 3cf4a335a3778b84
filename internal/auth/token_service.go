package auth

import (
	"errors"
	"time"
)

// TokenKind tells which key produced a verified token.
type TokenKind uint8

const (
	TokenKindNone TokenKind = iota
	TokenKindAccess
	TokenKindRefresh
)

func (k TokenKind) String() string {
	switch k {
	case TokenKindAccess:
		return "access"
	case TokenKindRefresh:
		return "refresh"
	default:
		return "none"
	}
}

// AccessTokenConfig configures short-lived tokens that authorize API calls.
type AccessTokenConfig struct {
	Key string
	TTL time.Duration
}

// RefreshTokenConfig configures long-lived tokens that only authorize renewal.
type RefreshTokenConfig struct {
	Key string
	TTL time.Duration
}

// TokenPair is issued on sign-in.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type tokenSpec struct {
	key []byte
	ttl time.Duration
}

// TokenService issues and verifies access and refresh tokens under separate keys.
type TokenService struct {
	codec   *TokenCodec
	access  tokenSpec
	refresh tokenSpec
}

// NewTokenService validates both configurations and builds the service.
func NewTokenService(access AccessTokenConfig, refresh RefreshTokenConfig) (*TokenService, error) {
	if access.Key == "" || refresh.Key == "" {
		return nil, errors.New("token keys must not be empty")
	}
	if access.Key == refresh.Key {
		return nil, errors.New("access and refresh token keys must differ")
	}
	if access.TTL <= 0 || refresh.TTL <= 0 {
		return nil, errors.New("token ttl must be positive")
	}

	return &TokenService{
		codec:   NewTokenCodec(),
		access:  tokenSpec{key: []byte(access.Key), ttl: access.TTL},
		refresh: tokenSpec{key: []byte(refresh.Key), ttl: refresh.TTL},
	}, nil
}

// CreateAccessToken signs an access token for subject.
func (s *TokenService) CreateAccessToken(subject string) (string, error) {
	return s.codec.Create(s.access.key, subject, s.access.ttl)
}

// CreateRefreshToken signs a refresh token for subject.
func (s *TokenService) CreateRefreshToken(subject string) (string, error) {
	return s.codec.Create(s.refresh.key, subject, s.refresh.ttl)
}

// ValidateAccessToken reports whether token is a live access token.
func (s *TokenService) ValidateAccessToken(token string) bool {
	return s.codec.Validate(s.access.key, token)
}

// ValidateRefreshToken reports whether token is a live refresh token.
func (s *TokenService) ValidateRefreshToken(token string) bool {
	return s.codec.Validate(s.refresh.key, token)
}

// ExtractAccessTokenSubject returns the subject of a live access token.
func (s *TokenService) ExtractAccessTokenSubject(token string) (string, error) {
	return s.codec.ExtractSubject(s.access.key, token)
}

// ExtractRefreshTokenSubject returns the subject of a live refresh token.
func (s *TokenService) ExtractRefreshTokenSubject(token string) (string, error) {
	return s.codec.ExtractSubject(s.refresh.key, token)
}

// IssueTokenPair signs one token of each kind for subject.
func (s *TokenService) IssueTokenPair(subject string) (TokenPair, error) {
	access, err := s.CreateAccessToken(subject)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.CreateRefreshToken(subject)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh issues a new access token for the subject of a live refresh token.
// The refresh token itself is left untouched and stays valid until it expires.
func (s *TokenService) Refresh(refreshToken string) (string, error) {
	subject, err := s.ExtractRefreshTokenSubject(refreshToken)
	if err != nil {
		return "", ErrAuthenticationRequired
	}
	return s.CreateAccessToken(subject)
}
