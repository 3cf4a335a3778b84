package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/member-auth/internal/api/dto"
	"github.com/spec-kit/member-auth/internal/service"
)

// SignHandler exposes sign-up, sign-in and token refresh.
type SignHandler struct {
	sign *service.SignService
}

// NewSignHandler constructs handler.
func NewSignHandler(signService *service.SignService) *SignHandler {
	return &SignHandler{sign: signService}
}

// SignUp handles POST /api/sign-up.
func (h *SignHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	member, err := h.sign.SignUp(c.UserContext(), service.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		Username: req.Username,
		Nickname: req.Nickname,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.NewMemberResponse(member),
	})
}

// SignIn handles POST /api/sign-in.
func (h *SignHandler) SignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	pair, err := h.sign.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.SignInResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken},
	})
}

// RefreshToken handles POST /api/refresh-token. The refresh token travels in
// the Authorization header exactly as it was issued.
func (h *SignHandler) RefreshToken(c *fiber.Ctx) error {
	access, err := h.sign.RefreshToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.RefreshTokenResponse{AccessToken: access},
	})
}
