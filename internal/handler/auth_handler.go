package handler

import (
	"go-retail-backoffice/internal/apperror"
	"go-retail-backoffice/internal/service"
	"go-retail-backoffice/pkg/response"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles user authentication
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if req.Email == "" || req.Password == "" {
		return apperror.Validation("email and password are required")
	}

	resp, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		return err
	}
	return response.OK(c, "Login successful", resp)
}

// ValidateTokenRequest represents the validate token request body
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateToken handles JWT token validation
// POST /api/v1/auth/validate-token
func (h *AuthHandler) ValidateToken(c *fiber.Ctx) error {
	var req ValidateTokenRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if req.Token == "" {
		return apperror.Validation("token is required")
	}

	resp, err := h.authService.ValidateToken(req.Token)
	if err != nil {
		return err
	}
	return response.OK(c, "Token is valid", resp)
}
