package content

import "unicode/utf8"

const (
	descriptionWindow   = 500
	descriptionStep     = 50
	descriptionMinText  = 245
	DescriptionMaxRunes = 255
)

// Describe derives a plain-text excerpt from sanitized HTML. It strips tags
// from a leading window of the markup, widening the window until enough text
// remains or the markup is exhausted, and cuts the result to DescriptionMaxRunes.
func Describe(sanitized string) string {
	runes := []rune(sanitized)

	for window := descriptionWindow; ; window += descriptionStep {
		end := min(window, len(runes))
		text := StripTags(string(runes[:end]))
		if utf8.RuneCountInString(text) >= descriptionMinText || end == len(runes) {
			return Truncate(text, DescriptionMaxRunes)
		}
	}
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
