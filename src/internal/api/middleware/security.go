package middleware

import (
	"github.com/labstack/echo/v4"
)

// Security sets the response headers every API reply carries
func Security() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			res := c.Response()

			res.Header().Set("X-Content-Type-Options", "nosniff")
			res.Header().Set("X-Frame-Options", "DENY")
			res.Header().Set("Referrer-Policy", "no-referrer")
			res.Header().Set("Cache-Control", "no-store")

			// HSTS for HTTPS
			if c.Request().TLS != nil || c.Request().Header.Get("X-Forwarded-Proto") == "https" {
				res.Header().Set("Strict-Transport-Security",
					"max-age=31536000; includeSubDomains")
			}

			return next(c)
		}
	}
}
