package content

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// MaxSlugBase is the longest base slug kept before a collision suffix is added.
const MaxSlugBase = 255

var slugSeparators = regexp.MustCompile(`[-\s]+`)

// Slugify lowercases s and keeps letters, numbers and marks of any script,
// joining words with single hyphens: "يومية للاختبار" -> "يومية-للاختبار".
func Slugify(s string) string {
	s = strings.ToLower(norm.NFKC.String(s))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r), unicode.IsNumber(r), unicode.IsMark(r), r == '_', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}

	slug := strings.Trim(slugSeparators.ReplaceAllString(b.String(), "-"), "-_")
	if runes := []rune(slug); len(runes) > MaxSlugBase {
		slug = strings.Trim(string(runes[:MaxSlugBase]), "-_")
	}
	return slug
}

// WithSuffix appends a collision token to base. An empty base yields the token alone.
func WithSuffix(base, token string) string {
	if base == "" {
		return token
	}
	return base + "-" + token
}
