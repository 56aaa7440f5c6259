package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spf13/viper"
)

// corsPolicy is the cors.* configuration resolved once at startup
type corsPolicy struct {
	anyOrigin        bool
	origins          map[string]bool
	subdomains       []string // ".example.org" for "*.example.org"
	allowMethods     string
	allowHeaders     string
	exposeHeaders    string
	maxAge           string
	allowCredentials bool
}

func newCORSPolicy(cfg *viper.Viper) *corsPolicy {
	p := &corsPolicy{
		origins:          make(map[string]bool),
		allowMethods:     cfg.GetString("cors.allowed_methods"),
		allowHeaders:     cfg.GetString("cors.allowed_headers"),
		exposeHeaders:    cfg.GetString("cors.exposed_headers"),
		maxAge:           strconv.Itoa(cfg.GetInt("cors.max_age")),
		allowCredentials: cfg.GetBool("cors.allow_credentials"),
	}

	origins := cfg.GetStringSlice("cors.allowed_origins")
	if len(origins) == 0 {
		p.anyOrigin = true
	}
	for _, origin := range origins {
		switch {
		case origin == "*":
			p.anyOrigin = true
		case strings.HasPrefix(origin, "*."):
			p.subdomains = append(p.subdomains, strings.TrimPrefix(origin, "*"))
		default:
			p.origins[origin] = true
		}
	}

	return p
}

func (p *corsPolicy) allows(origin string) bool {
	if p.anyOrigin || p.origins[origin] {
		return true
	}
	for _, suffix := range p.subdomains {
		if strings.HasSuffix(origin, suffix) {
			return true
		}
	}
	return false
}

// CORS returns a CORS middleware configured from settings. GET /health is
// open to every origin so external probes work.
func CORS(cfg *viper.Viper) echo.MiddlewareFunc {
	policy := newCORSPolicy(cfg)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			origin := req.Header.Get(echo.HeaderOrigin)
			if origin == "" {
				return next(c)
			}

			probe := req.Method == http.MethodGet && req.URL.Path == "/health"
			if !policy.allows(origin) && !probe {
				return echo.NewHTTPError(http.StatusForbidden, "CORS: origin not allowed")
			}

			h := c.Response().Header()
			h.Add(echo.HeaderVary, echo.HeaderOrigin)
			h.Set(echo.HeaderAccessControlAllowOrigin, origin)
			h.Set(echo.HeaderAccessControlAllowMethods, policy.allowMethods)
			h.Set(echo.HeaderAccessControlAllowHeaders, policy.allowHeaders)
			h.Set(echo.HeaderAccessControlExposeHeaders, policy.exposeHeaders)
			h.Set(echo.HeaderAccessControlMaxAge, policy.maxAge)
			if policy.allowCredentials {
				h.Set(echo.HeaderAccessControlAllowCredentials, "true")
			}

			if req.Method == http.MethodOptions {
				return c.NoContent(http.StatusNoContent)
			}

			return next(c)
		}
	}
}
