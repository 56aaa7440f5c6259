// Package locale carries the active language of a request through its
// context instead of a process-wide setting.
package locale

import (
	"context"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Supported lists the languages that have message catalogs.
var Supported = []language.Tag{
	language.English,
	language.French,
	language.German,
	language.Spanish,
	language.Portuguese,
	language.Italian,
	language.Dutch,
}

var matcher = language.NewMatcher(Supported)

// Locale is the language pair active for one request. Messages drives
// translated text. Dates is the application locale and is carried for
// localized date output; API timestamps are always UTC ISO 8601 and ignore it.
type Locale struct {
	Messages language.Tag
	Dates    language.Tag
}

type contextKey struct{}

// Default returns a Locale using tag for both messages and dates.
func Default(tag language.Tag) Locale {
	return Locale{Messages: tag, Dates: tag}
}

// Parse resolves a stored preference such as "fr" or "pt-BR" to the closest
// supported language. Empty, malformed or unsupported values yield fallback.
func Parse(value string, fallback language.Tag) language.Tag {
	if value == "" {
		return fallback
	}
	tag, err := language.Parse(value)
	if err != nil {
		return fallback
	}
	_, idx, confidence := matcher.Match(tag)
	if confidence == language.No {
		return fallback
	}
	return Supported[idx]
}

// WithLocale returns a copy of ctx carrying l.
func WithLocale(ctx context.Context, l Locale) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the Locale stored in ctx, if any.
func FromContext(ctx context.Context) (Locale, bool) {
	l, ok := ctx.Value(contextKey{}).(Locale)
	return l, ok
}

// Printer returns a message printer for the request's message language,
// English when none was set.
func Printer(ctx context.Context) *message.Printer {
	if l, ok := FromContext(ctx); ok {
		return message.NewPrinter(l.Messages)
	}
	return message.NewPrinter(language.English)
}
