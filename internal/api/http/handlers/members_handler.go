package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/member-auth/internal/api/dto"
	"github.com/spec-kit/member-auth/internal/auth"
	"github.com/spec-kit/member-auth/internal/service"
)

// MembersHandler exposes member reads and deletion.
type MembersHandler struct {
	members *service.MemberService
}

// NewMembersHandler constructs handler.
func NewMembersHandler(memberService *service.MemberService) *MembersHandler {
	return &MembersHandler{members: memberService}
}

// Read handles GET /api/members/:id.
func (h *MembersHandler) Read(c *fiber.Ctx) error {
	member, err := h.members.Read(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewMemberResponse(member)})
}

// Delete handles DELETE /api/members/:id.
func (h *MembersHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.members.Delete(c.UserContext(), auth.FromFiber(c), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": id, "deleted": true}})
}
