package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/casapps/cascontacts/src/internal/database/models"
)

// Context keys set by the middleware
const (
	ContextUser      = "user"
	ContextUserID    = "user_id"
	ContextAccountID = "account_id"
)

// UserResolver loads the user a token was issued to
type UserResolver interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Middleware provides authentication middleware
type Middleware struct {
	authService *AuthService
	users       UserResolver
	skipper     func(c echo.Context) bool
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(authService *AuthService, users UserResolver) *Middleware {
	return &Middleware{
		authService: authService,
		users:       users,
		skipper:     DefaultSkipper,
	}
}

// DefaultSkipper returns true for paths that don't require authentication
func DefaultSkipper(c echo.Context) bool {
	switch c.Path() {
	case "/health", "/api/auth/login":
		return true
	}
	return false
}

// Auth returns the authentication middleware handler
func (m *Middleware) Auth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if m.skipper != nil && m.skipper(c) {
				return next(c)
			}

			token, ok := bearerToken(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authentication")
			}

			claims, err := m.authService.ValidateToken(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
			}

			// The account always comes from the stored user, never the token alone
			user, err := m.users.FindByID(c.Request().Context(), claims.UserID)
			if err != nil || user == nil {
				return echo.NewHTTPError(http.StatusUnauthorized, ErrUserNotFound.Error())
			}

			c.Set(ContextUser, user)
			c.Set(ContextUserID, user.ID)
			c.Set(ContextAccountID, user.AccountID)

			return next(c)
		}
	}
}

// CurrentUser returns the authenticated user, if any
func CurrentUser(c echo.Context) (*models.User, bool) {
	user, ok := c.Get(ContextUser).(*models.User)
	return user, ok && user != nil
}

// AccountID returns the account of the authenticated user
func AccountID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(ContextAccountID).(uuid.UUID)
	return id, ok
}

// UserLocale reports the stored locale of the authenticated user. It has the
// shape the locale middleware expects.
func UserLocale(c echo.Context) (string, bool) {
	user, ok := CurrentUser(c)
	if !ok {
		return "", false
	}
	return user.Locale, true
}

func bearerToken(c echo.Context) (string, bool) {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header == "" {
		cookie, err := c.Cookie("access_token")
		if err != nil || cookie.Value == "" {
			return "", false
		}
		return cookie.Value, true
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
