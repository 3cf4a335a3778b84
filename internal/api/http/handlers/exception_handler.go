package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/member-auth/internal/auth"
	apperrors "github.com/spec-kit/member-auth/pkg/util/errorutil"
)

// ExceptionHandler serves the fixed endpoints clients are redirected to when
// authentication is missing or access is denied.
type ExceptionHandler struct{}

// NewExceptionHandler constructs handler.
func NewExceptionHandler() *ExceptionHandler {
	return &ExceptionHandler{}
}

// EntryPoint handles GET /exception/entry-point.
func (h *ExceptionHandler) EntryPoint(*fiber.Ctx) error {
	return apperrors.Wrap("UNAUTHORIZED", "authentication required", fiber.StatusUnauthorized, auth.ErrAuthenticationRequired)
}

// AccessDenied handles GET /exception/access-denied.
func (h *ExceptionHandler) AccessDenied(*fiber.Ctx) error {
	return apperrors.Wrap("FORBIDDEN", "access denied", fiber.StatusForbidden, auth.ErrAccessDenied)
}
