package auth

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/member-auth/internal/domain"
)

// PrincipalLookup resolves a token subject to a principal.
// It returns domain.ErrPrincipalNotFound when the subject does not exist.
type PrincipalLookup interface {
	GetByIdentifier(ctx context.Context, id string) (domain.Principal, error)
}

// AuthMiddleware derives the authentication context of each request.
// It never rejects a request; guards downstream decide.
type AuthMiddleware struct {
	tokens     *TokenService
	principals PrincipalLookup
	logger     *zap.Logger
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenService, principals PrincipalLookup, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{tokens: tokens, principals: principals, logger: logger}
}

// Handle attaches the authentication context to the request and continues the chain.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	ctx := c.UserContext()
	authCtx := m.Authenticate(ctx, c.Get(fiber.HeaderAuthorization))
	c.SetUserContext(WithAuthentication(ctx, authCtx))
	return c.Next()
}

// Authenticate classifies header as an access or refresh token, access first,
// and resolves its subject. Any failure yields the anonymous context.
func (m *AuthMiddleware) Authenticate(ctx context.Context, header string) AuthenticationContext {
	if header == "" {
		return Anonymous()
	}

	subject, accessErr := m.tokens.ExtractAccessTokenSubject(header)
	if accessErr == nil {
		return m.resolve(ctx, subject, TokenKindAccess)
	}

	subject, refreshErr := m.tokens.ExtractRefreshTokenSubject(header)
	if refreshErr == nil {
		return m.resolve(ctx, subject, TokenKindRefresh)
	}

	m.logger.Debug("token rejected",
		zap.NamedError("as_access", accessErr),
		zap.NamedError("as_refresh", refreshErr))
	return Anonymous()
}

func (m *AuthMiddleware) resolve(ctx context.Context, subject string, kind TokenKind) AuthenticationContext {
	principal, err := m.principals.GetByIdentifier(ctx, subject)
	if err != nil {
		if errors.Is(err, domain.ErrPrincipalNotFound) {
			m.logger.Debug("token subject not found", zap.String("subject", subject), zap.Stringer("kind", kind))
		} else {
			m.logger.Warn("principal lookup failed", zap.String("subject", subject), zap.Error(err))
		}
		return Anonymous()
	}
	return Authenticated(principal, kind)
}
