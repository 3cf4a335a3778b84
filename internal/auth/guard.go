package auth

// Guard decides whether a request may act on a resource owned by a member.
type Guard struct{}

// NewGuard returns a guard.
func NewGuard() Guard {
	return Guard{}
}

// Check fails closed: it passes only for an access-token principal that owns
// the resource or holds the administrative role.
func (Guard) Check(authCtx AuthenticationContext, ownerID string) bool {
	principal, ok := authCtx.Principal()
	if !ok || authCtx.Kind() != TokenKindAccess {
		return false
	}
	return principal.ID == ownerID || principal.IsAdmin()
}

// Authorize is Check with the 401/403 distinction preserved.
func (g Guard) Authorize(authCtx AuthenticationContext, ownerID string) error {
	if !authCtx.IsAuthenticated() {
		return ErrAuthenticationRequired
	}
	if !g.Check(authCtx, ownerID) {
		return ErrAccessDenied
	}
	return nil
}
