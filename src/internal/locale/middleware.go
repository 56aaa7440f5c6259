package locale

import (
	"github.com/labstack/echo/v4"
	"golang.org/x/text/language"
)

// PreferenceFunc reports the stored locale of the authenticated user, or
// false when the request is anonymous.
type PreferenceFunc func(c echo.Context) (string, bool)

// Middleware attaches the request Locale to the request context.
//
// Messages follow the user's preference. Dates always follow the application
// locale.
func Middleware(appLocale string, preference PreferenceFunc) echo.MiddlewareFunc {
	fallback := Parse(appLocale, language.English)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userLocale, ok := preference(c)
			if !ok {
				return next(c)
			}

			l := Locale{
				Messages: Parse(userLocale, fallback),
				Dates:    fallback,
			}

			req := c.Request()
			c.SetRequest(req.WithContext(WithLocale(req.Context(), l)))
			c.Response().Header().Set("Content-Language", l.Messages.String())

			return next(c)
		}
	}
}
