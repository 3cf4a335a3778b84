package domain

import (
	"fmt"
	"strings"
)

// Role enumerates the authorities a member may hold.
type Role uint8

const (
	RoleNormal Role = iota + 1
	RoleSpecialBuyer
	RoleAdmin
)

// AllRoles lists every role in seeding order.
var AllRoles = []Role{RoleNormal, RoleSpecialBuyer, RoleAdmin}

// String returns the stored role name.
func (r Role) String() string {
	switch r {
	case RoleNormal:
		return "NORMAL"
	case RoleSpecialBuyer:
		return "SPECIAL_BUYER"
	case RoleAdmin:
		return "ADMIN"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

// ParseRole maps a stored role name back onto the enum.
func ParseRole(name string) (Role, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "NORMAL":
		return RoleNormal, nil
	case "SPECIAL_BUYER":
		return RoleSpecialBuyer, nil
	case "ADMIN":
		return RoleAdmin, nil
	default:
		return 0, fmt.Errorf("unknown role %q", name)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// RoleSet is an immutable set of roles.
type RoleSet struct {
	bits uint8
}

// NewRoleSet builds a set from the given roles. Unknown values are ignored.
func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		if r < RoleNormal || r > RoleAdmin {
			continue
		}
		s.bits |= 1 << r
	}
	return s
}

// Has reports whether role is a member of the set.
func (s RoleSet) Has(role Role) bool {
	if role < RoleNormal || role > RoleAdmin {
		return false
	}
	return s.bits&(1<<role) != 0
}

// Len returns the number of roles held.
func (s RoleSet) Len() int {
	n := 0
	for _, r := range AllRoles {
		if s.Has(r) {
			n++
		}
	}
	return n
}

// Slice returns the roles in declaration order.
func (s RoleSet) Slice() []Role {
	out := make([]Role, 0, len(AllRoles))
	for _, r := range AllRoles {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

// Strings returns the stored names of the roles held.
func (s RoleSet) Strings() []string {
	roles := s.Slice()
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = r.String()
	}
	return out
}
