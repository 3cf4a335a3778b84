package dto

import (
	"time"

	"github.com/spec-kit/member-auth/internal/domain"
)

// MemberResponse is the public view of a member.
type MemberResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Nickname  string    `json:"nickname"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMemberResponse maps a domain member, leaving out the password hash.
func NewMemberResponse(m *domain.Member) MemberResponse {
	return MemberResponse{
		ID:        m.ID,
		Email:     m.Email,
		Username:  m.Username,
		Nickname:  m.Nickname,
		Roles:     m.Roles.Strings(),
		CreatedAt: m.CreatedAt,
	}
}
