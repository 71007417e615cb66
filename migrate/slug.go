package migrate

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Turns a display name into an ID: lower case, diacritics stripped,
// runs of anything else than [a-z0-9] replaced by a single '-'.
func Slugify(text string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, strings.ToLower(text))
	if err != nil {
		s = strings.ToLower(text)
	}

	// ł has no decomposition
	s = strings.ReplaceAll(s, "ł", "l")

	s = nonAlphanumeric.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
