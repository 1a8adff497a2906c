// Package slug normalizes production titles into URL-safe tenant slugs.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// reserved names collide with top-level site routes and can never be claimed
// as a production slug.
var reserved = map[string]struct{}{
	"login":     {},
	"logout":    {},
	"register":  {},
	"signup":    {},
	"pricing":   {},
	"buy":       {},
	"purchase":  {},
	"billing":   {},
	"about":     {},
	"contact":   {},
	"help":      {},
	"support":   {},
	"terms":     {},
	"privacy":   {},
	"dashboard": {},
	"api":       {},
	"assets":    {},
	"static":    {},
	"auth":      {},
	"users":     {},
	"admin":     {},
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize folds input to lowercase ascii, strips diacritics, collapses every
// run of non-alphanumerics into a single hyphen and trims leading and trailing
// hyphens. Normalize is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(input string) string {
	lowered := strings.ToLower(strings.TrimSpace(input))
	if folded, _, err := transform.String(stripMarks, lowered); err == nil {
		lowered = folded
	}

	var b strings.Builder
	b.Grow(len(lowered))
	lastHyphen := false
	for _, r := range lowered {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen && b.Len() > 0 {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.Trim(b.String(), "-")
}

// IsReserved reports whether the normalized slug collides with a site route.
func IsReserved(s string) bool {
	_, ok := reserved[s]
	return ok
}
