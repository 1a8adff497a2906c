package validators

import "strings"

// SanitizeString trims surrounding whitespace and truncates to maxLen
// characters, cutting on rune boundaries so multibyte input stays valid UTF-8.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 {
		return trimmed
	}
	runes := []rune(trimmed)
	if len(runes) <= maxLen {
		return trimmed
	}
	return string(runes[:maxLen])
}
