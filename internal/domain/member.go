package domain

import (
	"strconv"
	"time"
)

// Member is the domain model for a registered market member.
type Member struct {
	ID           int64
	Email        string
	PasswordHash string
	Username     string
	Nickname     string
	Roles        RoleSet
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identifier renders the member id the way it is carried in token subjects.
func (m *Member) Identifier() string {
	return strconv.FormatInt(m.ID, 10)
}

// Principal projects the member onto the identity the auth core reads.
func (m *Member) Principal() Principal {
	return Principal{ID: m.Identifier(), Roles: m.Roles}
}
