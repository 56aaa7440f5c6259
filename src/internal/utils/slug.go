package utils

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/unicode/norm"
)

var (
	// Any run of characters that cannot appear in a slug.
	slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)

	// Cyrillic letters whose established romanization differs from unidecode's.
	cyrillicOverrides = strings.NewReplacer(
		"ь", "", "Ь", "",
		"ъ", "", "Ъ", "",
		"я", "ya", "Я", "Ya",
		"ю", "yu", "Ю", "Yu",
		"ё", "yo", "Ё", "Yo",
		"й", "y", "Й", "Y",
	)
)

// Slugify converts a display name to its URL-safe form. Letters from any
// script are transliterated to ASCII first.
//
//	"VIP Client"   -> "vip-client"
//	"Café Crème"   -> "cafe-creme"
//	"Straße"       -> "strasse"
//	"Друзья"       -> "druzya"
//	"  --Friends-- " -> "friends"
func Slugify(s string) string {
	s = cyrillicOverrides.Replace(norm.NFC.String(s))
	s = unidecode.Unidecode(s)

	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = slugSeparators.ReplaceAllString(s, "-")

	return strings.Trim(s, "-")
}
