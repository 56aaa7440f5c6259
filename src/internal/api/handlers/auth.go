package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/casapps/cascontacts/src/internal/auth"
	apperrors "github.com/casapps/cascontacts/src/internal/errors"
	"github.com/casapps/cascontacts/src/internal/services"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	users       *services.UserService
	authService *auth.AuthService
	validator   *apperrors.Validator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users *services.UserService, authService *auth.AuthService) *AuthHandler {
	return &AuthHandler{
		users:       users,
		authService: authService,
		validator:   apperrors.NewValidator(),
	}
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	OTP      string `json:"otp,omitempty"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	*auth.TokenPair
	User       *UserResource `json:"user,omitempty"`
	Require2FA bool          `json:"require_2fa,omitempty"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.InvalidJSON(err)
	}

	ctx := c.Request().Context()
	if err := h.validator.Struct(ctx, &req); err != nil {
		return err
	}

	user, err := h.users.Authenticate(ctx, req.Email, req.Password, req.OTP)
	switch {
	case errors.Is(err, auth.ErrTwoFactorRequired):
		return c.JSON(http.StatusOK, LoginResponse{Require2FA: true})
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidTwoFactor):
		return apperrors.UnauthorizedError(err.Error())
	case err != nil:
		return err
	}

	tokens, err := h.authService.GenerateTokenPair(user)
	if err != nil {
		return err
	}

	resource := newUserResource(user)
	return c.JSON(http.StatusOK, LoginResponse{
		TokenPair: tokens,
		User:      &resource,
	})
}
