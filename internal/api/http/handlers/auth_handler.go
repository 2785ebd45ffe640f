package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm-core/internal/api/dto"
	"github.com/spec-kit/crm-core/internal/auth"
	"github.com/spec-kit/crm-core/internal/config"
	apperrors "github.com/spec-kit/crm-core/pkg/util"
)

// AuthHandler issues admin tokens.
type AuthHandler struct {
	cfg    config.AuthConfig
	tokens *auth.TokenManager
}

// NewAuthHandler returns a new handler instance.
func NewAuthHandler(cfg config.AuthConfig, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{cfg: cfg, tokens: tokens}
}

// Login verifies the admin credential and returns a bearer token.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var payload dto.LoginRequest
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid request body", nil)
	}

	actor, err := auth.VerifyAdmin(h.cfg, payload.ID, payload.Password)
	if err != nil {
		return err
	}

	token, expiresAt, err := h.tokens.GenerateToken(actor.ID, actor.Name)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt.Format(time.RFC3339),
	})
}
