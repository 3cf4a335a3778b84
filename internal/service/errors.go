package service

import (
	"errors"
	"net/http"

	"github.com/spec-kit/member-auth/internal/auth"
	"github.com/spec-kit/member-auth/internal/domain"
	"github.com/spec-kit/member-auth/internal/ratelimit"
	"github.com/spec-kit/member-auth/internal/repository"
	apperrors "github.com/spec-kit/member-auth/pkg/util/errorutil"
)

// mapError translates package sentinels into HTTP-facing domain errors while
// keeping the sentinel reachable through errors.Is.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, auth.ErrAuthenticationRequired), errors.Is(err, auth.ErrInvalidToken):
		return apperrors.Wrap("UNAUTHORIZED", "authentication required", http.StatusUnauthorized, err)
	case errors.Is(err, auth.ErrAccessDenied):
		return apperrors.Wrap("FORBIDDEN", "access denied", http.StatusForbidden, err)
	case errors.Is(err, domain.ErrLoginFailure):
		return apperrors.Wrap("LOGIN_FAILURE", "invalid email or password", http.StatusUnauthorized, err)
	case errors.Is(err, domain.ErrMemberNotFound):
		return apperrors.Wrap("NOT_FOUND", "member not found", http.StatusNotFound, err)
	case errors.Is(err, domain.ErrEmailExists):
		return apperrors.Wrap("EMAIL_EXISTS", "email already registered", http.StatusConflict, err)
	case errors.Is(err, domain.ErrNicknameExists):
		return apperrors.Wrap("NICKNAME_EXISTS", "nickname already taken", http.StatusConflict, err)
	case errors.Is(err, repository.ErrDatabaseUnavailable):
		return apperrors.Wrap("SERVICE_UNAVAILABLE", "member store unavailable", http.StatusServiceUnavailable, err)
	case errors.Is(err, ratelimit.ErrRateLimited):
		return apperrors.Wrap("TOO_MANY_REQUESTS", "too many failed sign-in attempts", http.StatusTooManyRequests, err)
	}
	return apperrors.MapError(err)
}
