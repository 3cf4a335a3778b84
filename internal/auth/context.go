package auth

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/member-auth/internal/domain"
)

// AuthenticationContext is the immutable per-request result of authentication.
// The zero value is unauthenticated.
type AuthenticationContext struct {
	principal domain.Principal
	kind      TokenKind
}

// Anonymous returns the unauthenticated context.
func Anonymous() AuthenticationContext {
	return AuthenticationContext{}
}

// Authenticated binds principal to the kind of token that proved it.
func Authenticated(principal domain.Principal, kind TokenKind) AuthenticationContext {
	if kind == TokenKindNone {
		return Anonymous()
	}
	return AuthenticationContext{principal: principal, kind: kind}
}

// IsAuthenticated reports whether a token of either kind was accepted.
func (a AuthenticationContext) IsAuthenticated() bool {
	return a.kind != TokenKindNone
}

// Principal returns the resolved principal, if any.
func (a AuthenticationContext) Principal() (domain.Principal, bool) {
	return a.principal, a.IsAuthenticated()
}

// Kind returns the kind of token that produced the context.
func (a AuthenticationContext) Kind() TokenKind {
	return a.kind
}

type authContextKey struct{}

// WithAuthentication returns a child of ctx carrying authCtx.
func WithAuthentication(ctx context.Context, authCtx AuthenticationContext) context.Context {
	return context.WithValue(ctx, authContextKey{}, authCtx)
}

// FromContext retrieves the authentication result; anonymous when none was attached.
func FromContext(ctx context.Context) AuthenticationContext {
	if ctx == nil {
		return Anonymous()
	}
	authCtx, ok := ctx.Value(authContextKey{}).(AuthenticationContext)
	if !ok {
		return Anonymous()
	}
	return authCtx
}

// FromFiber retrieves the authentication result attached to the request.
func FromFiber(c *fiber.Ctx) AuthenticationContext {
	return FromContext(c.UserContext())
}
