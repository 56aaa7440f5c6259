package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/casapps/cascontacts/src/internal/auth"
	"github.com/casapps/cascontacts/src/internal/database/models"
	apperrors "github.com/casapps/cascontacts/src/internal/errors"
	"github.com/casapps/cascontacts/src/internal/services"
)

// UserResource is the authenticated user as the API presents it
type UserResource struct {
	ID               uuid.UUID  `json:"id"`
	Object           string     `json:"object"`
	Email            string     `json:"email"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	Locale           string     `json:"locale"`
	TwoFactorEnabled bool       `json:"two_factor_enabled"`
	Account          AccountRef `json:"account"`
}

func newUserResource(user *models.User) UserResource {
	return UserResource{
		ID:               user.ID,
		Object:           "user",
		Email:            user.Email,
		FirstName:        user.FirstName,
		LastName:         user.LastName,
		Locale:           user.Locale,
		TwoFactorEnabled: user.TwoFactorEnabled,
		Account:          AccountRef{ID: user.AccountID},
	}
}

// UserHandler handles endpoints about the current user
type UserHandler struct {
	users     *services.UserService
	validator *apperrors.Validator
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{
		users:     users,
		validator: apperrors.NewValidator(),
	}
}

// LocaleRequest changes the preferred language
type LocaleRequest struct {
	Locale string `json:"locale" validate:"required,max=10"`
}

// Me handles GET /api/me
func (h *UserHandler) Me(c echo.Context) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.UnauthorizedError("authentication required")
	}
	return c.JSON(http.StatusOK, Single[UserResource]{Data: newUserResource(user)})
}

// UpdateLocale handles PUT /api/me/locale. The new language applies from
// the next request on.
func (h *UserHandler) UpdateLocale(c echo.Context) error {
	user, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.UnauthorizedError("authentication required")
	}

	var req LocaleRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.InvalidJSON(err)
	}
	if err := h.validator.Struct(c.Request().Context(), &req); err != nil {
		return err
	}

	updated, err := h.users.SetLocale(c.Request().Context(), user.ID, req.Locale)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, Single[UserResource]{Data: newUserResource(updated)})
}
