package domain

// Principal is an authenticated identity plus its roles.
type Principal struct {
	ID    string
	Roles RoleSet
}

// IsAdmin reports whether the principal holds the administrative role.
func (p Principal) IsAdmin() bool {
	return p.Roles.Has(RoleAdmin)
}
