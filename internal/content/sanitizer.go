package content

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"mvdan.cc/xurls/v2"
)

// Sanitizer cleans user supplied markup.
type Sanitizer interface {
	// Sanitize returns html reduced to the diary allow-list.
	Sanitize(html string) string
	// Linkify escapes plain text and turns URLs in it into links.
	Linkify(text string) string
}

// HTMLSanitizer is the Sanitizer backed by bluemonday and xurls.
type HTMLSanitizer struct {
	policy *bluemonday.Policy
}

var _ Sanitizer = (*HTMLSanitizer)(nil)

var allowedElements = []string{
	"p", "u", "s", "i", "b", "a", "sub", "sup", "img", "div", "ul", "li", "ol",
	"em", "strong", "h1", "h2", "h3", "h4", "h5", "h6", "pre", "address", "caption",
}

// NewSanitizer builds the diary content policy.
func NewSanitizer() *HTMLSanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements(allowedElements...)
	p.AllowAttrs("href", "target").OnElements("a")
	p.AllowAttrs("src", "alt").OnElements("img")
	p.AllowStyles("height", "width").OnElements("img")
	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowRelativeURLs(true)
	p.RequireParseableURLs(true)

	return &HTMLSanitizer{policy: p}
}

// Sanitize implements Sanitizer.
func (s *HTMLSanitizer) Sanitize(markup string) string {
	return strings.TrimSpace(s.policy.Sanitize(markup))
}

var urlPattern = xurls.Relaxed()

// Linkify implements Sanitizer. Line breaks become <br>.
func (s *HTMLSanitizer) Linkify(text string) string {
	var b strings.Builder
	last := 0
	for _, loc := range urlPattern.FindAllStringIndex(text, -1) {
		b.WriteString(html.EscapeString(text[last:loc[0]]))

		raw := text[loc[0]:loc[1]]
		href := raw
		if !strings.Contains(raw, "://") && !strings.HasPrefix(raw, "mailto:") {
			if strings.Contains(raw, "@") && !strings.Contains(raw, "/") {
				href = "mailto:" + raw
			} else {
				href = "http://" + raw
			}
		}
		b.WriteString(`<a href="`)
		b.WriteString(html.EscapeString(href))
		b.WriteString(`" rel="nofollow">`)
		b.WriteString(html.EscapeString(raw))
		b.WriteString(`</a>`)
		last = loc[1]
	}
	b.WriteString(html.EscapeString(text[last:]))

	return strings.ReplaceAll(b.String(), "\n", "<br>")
}
