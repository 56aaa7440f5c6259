package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/casapps/cascontacts/src/internal/auth"
	"github.com/casapps/cascontacts/src/internal/database/models"
	apperrors "github.com/casapps/cascontacts/src/internal/errors"
)

func rateLimitConfig(anonymous, authenticated int) *viper.Viper {
	cfg := viper.New()
	cfg.Set("ratelimit.enabled", true)
	cfg.Set("ratelimit.anonymous_api", anonymous)
	cfg.Set("ratelimit.authenticated_api", authenticated)
	return cfg
}

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter()

	assert.Equal(t, -1, rl.Remaining("a"))
	assert.True(t, rl.Allow("a", 2))
	assert.True(t, rl.Allow("a", 2))
	assert.False(t, rl.Allow("a", 2))

	// Separate keys get separate buckets
	assert.True(t, rl.Allow("b", 2))

	rl.idleTTL = 0
	rl.Cleanup()
	assert.Equal(t, -1, rl.Remaining("a"))
}

func TestRateLimitMiddleware(t *testing.T) {
	e := echo.New()
	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	t.Run("anonymous by ip", func(t *testing.T) {
		mw := RateLimit(rateLimitConfig(1, 5), NewRateLimiter())

		req := httptest.NewRequest(http.MethodGet, "/api/tags", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		c := e.NewContext(req, httptest.NewRecorder())
		require.NoError(t, mw(handler)(c))

		c = e.NewContext(req, httptest.NewRecorder())
		err := mw(handler)(c)
		assert.ErrorIs(t, err, apperrors.ErrTooManyAttempts)

		var custom *apperrors.CustomError
		require.ErrorAs(t, err, &custom)
		assert.Equal(t, http.StatusTooManyRequests, custom.StatusCode)
		assert.Equal(t, apperrors.ErrorCodeTooManyAttempts, custom.ErrorCode)
	})

	t.Run("authenticated by user", func(t *testing.T) {
		mw := RateLimit(rateLimitConfig(1, 2), NewRateLimiter())
		user := &models.User{ID: uuid.New()}

		for i := 0; i < 2; i++ {
			req := httptest.NewRequest(http.MethodGet, "/api/tags", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.Set(auth.ContextUser, user)
			require.NoError(t, mw(handler)(c))
			assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		}

		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/tags", nil), httptest.NewRecorder())
		c.Set(auth.ContextUser, user)
		assert.Error(t, mw(handler)(c))
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := rateLimitConfig(1, 1)
		cfg.Set("ratelimit.enabled", false)
		mw := RateLimit(cfg, nil)

		for i := 0; i < 3; i++ {
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
			assert.NoError(t, mw(handler)(c))
		}
	})
}

func TestCORS(t *testing.T) {
	cfg := viper.New()
	cfg.Set("cors.allowed_origins", []string{"https://app.example.com", "*.example.org"})
	cfg.Set("cors.allowed_methods", "GET, POST")

	e := echo.New()
	mw := CORS(cfg)
	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tags", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rec := httptest.NewRecorder()
		require.NoError(t, mw(handler)(e.NewContext(req, rec)))
		assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("wildcard subdomain", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/tags", nil)
		req.Header.Set("Origin", "https://crm.example.org")
		rec := httptest.NewRecorder()
		require.NoError(t, mw(handler)(e.NewContext(req, rec)))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("lookalike domain", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tags", nil)
		req.Header.Set("Origin", "https://evilexample.org")
		err := mw(handler)(e.NewContext(req, httptest.NewRecorder()))
		assert.Error(t, err)
	})

	t.Run("health is open", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "https://monitor.test")
		rec := httptest.NewRecorder()
		require.NoError(t, mw(handler)(e.NewContext(req, rec)))
		assert.Equal(t, "https://monitor.test", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("rejected origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/tags", nil)
		req.Header.Set("Origin", "https://evil.test")
		err := mw(handler)(e.NewContext(req, httptest.NewRecorder()))
		var httpErr *echo.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusForbidden, httpErr.Code)
	})
}

func TestSecurityHeaders(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, Security()(func(c echo.Context) error { return nil })(c))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
}
