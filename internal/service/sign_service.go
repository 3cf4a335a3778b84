package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/member-auth/internal/auth"
	"github.com/spec-kit/member-auth/internal/domain"
	"github.com/spec-kit/member-auth/internal/events"
	"github.com/spec-kit/member-auth/internal/repository"
	apperrors "github.com/spec-kit/member-auth/pkg/util/errorutil"
)

const (
	maxEmailLength    = 30
	minPasswordLength = 8
	maxPasswordLength = 100
	minNameLength     = 2
	maxNameLength     = 20
)

// AttemptLimiter throttles repeated sign-in failures per identifier.
type AttemptLimiter interface {
	Check(ctx context.Context, identifier string) error
	Fail(ctx context.Context, identifier string) int64
	Reset(ctx context.Context, identifier string)
}

// SignUpInput carries the fields a new member registers with.
type SignUpInput struct {
	Email    string
	Password string
	Username string
	Nickname string
}

// SignService coordinates registration, sign-in and token refresh.
type SignService struct {
	members    repository.MemberRepository
	tokens     *auth.TokenService
	hasher     auth.PasswordHasher
	limiter    AttemptLimiter
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// SignDependencies encapsulates collaborators for the sign service.
type SignDependencies struct {
	Members    repository.MemberRepository
	Tokens     *auth.TokenService
	Hasher     auth.PasswordHasher
	Limiter    AttemptLimiter
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewSignService builds the service.
func NewSignService(deps SignDependencies) *SignService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SignService{
		members:    deps.Members,
		tokens:     deps.Tokens,
		hasher:     deps.Hasher,
		limiter:    deps.Limiter,
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// SignUp registers a member with the NORMAL role.
func (s *SignService) SignUp(ctx context.Context, in SignUpInput) (*domain.Member, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Username = strings.TrimSpace(in.Username)
	in.Nickname = strings.TrimSpace(in.Nickname)

	if details := validateSignUp(in); len(details) > 0 {
		return nil, apperrors.NewValidationError("invalid sign-up request", details)
	}

	exists, err := s.members.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, mapError(err)
	}
	if exists {
		return nil, mapError(domain.ErrEmailExists)
	}
	exists, err = s.members.ExistsByNickname(ctx, in.Nickname)
	if err != nil {
		return nil, mapError(err)
	}
	if exists {
		return nil, mapError(domain.ErrNicknameExists)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	member := &domain.Member{
		Email:        in.Email,
		PasswordHash: hash,
		Username:     in.Username,
		Nickname:     in.Nickname,
		Roles:        domain.NewRoleSet(domain.RoleNormal),
	}
	if err := s.members.Create(ctx, member); err != nil {
		return nil, mapError(err)
	}

	s.publish(ctx, events.NewEvent(events.EventMemberSignedUp, member.Identifier(), events.MemberSignedUpPayload{
		Email:    member.Email,
		Nickname: member.Nickname,
		Roles:    member.Roles.Strings(),
	}))
	return member, nil
}

// SignIn verifies credentials and issues an access/refresh pair whose
// subject is the member id. Every credential failure looks the same.
func (s *SignService) SignIn(ctx context.Context, email, password string) (auth.TokenPair, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return auth.TokenPair{}, apperrors.NewValidationError("email and password required", nil)
	}

	if s.limiter != nil {
		if err := s.limiter.Check(ctx, email); err != nil {
			return auth.TokenPair{}, mapError(err)
		}
	}

	member, err := s.members.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrMemberNotFound) {
			return auth.TokenPair{}, s.loginFailure(ctx, email)
		}
		return auth.TokenPair{}, mapError(err)
	}
	if !s.hasher.Matches(member.PasswordHash, password) {
		return auth.TokenPair{}, s.loginFailure(ctx, email)
	}

	if s.limiter != nil {
		s.limiter.Reset(ctx, email)
	}
	pair, err := s.tokens.IssueTokenPair(member.Identifier())
	if err != nil {
		return auth.TokenPair{}, apperrors.NewInternalError(err)
	}
	return pair, nil
}

// RefreshToken exchanges a live refresh token for a new access token. The
// refresh token is not rotated.
func (s *SignService) RefreshToken(refreshToken string) (string, error) {
	access, err := s.tokens.Refresh(refreshToken)
	if err != nil {
		return "", mapError(err)
	}
	return access, nil
}

// IssueTokenPair signs a fresh pair for subject.
func (s *SignService) IssueTokenPair(subject string) (auth.TokenPair, error) {
	pair, err := s.tokens.IssueTokenPair(subject)
	if err != nil {
		return auth.TokenPair{}, apperrors.NewInternalError(err)
	}
	return pair, nil
}

func (s *SignService) loginFailure(ctx context.Context, email string) error {
	if s.limiter != nil {
		attempts := s.limiter.Fail(ctx, email)
		s.logger.Debug("sign-in failed", zap.Int64("attempts", attempts))
	}
	return mapError(domain.ErrLoginFailure)
}

func (s *SignService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func validateSignUp(in SignUpInput) map[string]any {
	details := map[string]any{}

	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		details["email"] = "must be a valid email address"
	} else if len(in.Email) > maxEmailLength {
		details["email"] = "must be at most 30 characters"
	}

	if msg := validatePassword(in.Password); msg != "" {
		details["password"] = msg
	}

	if n := utf8.RuneCountInString(in.Username); n < minNameLength || n > maxNameLength {
		details["username"] = "must be 2 to 20 characters"
	}

	if n := utf8.RuneCountInString(in.Nickname); n < minNameLength || n > maxNameLength {
		details["nickname"] = "must be 2 to 20 characters"
	} else if !isLettersOrDigits(in.Nickname) {
		details["nickname"] = "must contain only letters and digits"
	}

	return details
}

func validatePassword(password string) string {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLength || n > maxPasswordLength {
		return "must be 8 to 100 characters"
	}

	var letter, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsSpace(r):
		default:
			symbol = true
		}
	}
	if !letter || !digit || !symbol {
		return "must contain a letter, a digit and a symbol"
	}
	return ""
}

func isLettersOrDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
