package validators

import (
	"strings"
	"unicode/utf8"
)

// SanitizeString trims the input, collapses inner whitespace runs and caps it at maxLen runes.
// Accented names survive truncation intact.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.Join(strings.Fields(input), " ")
	if maxLen <= 0 || utf8.RuneCountInString(cleaned) <= maxLen {
		return cleaned
	}
	runes := []rune(cleaned)
	return strings.TrimSpace(string(runes[:maxLen]))
}
