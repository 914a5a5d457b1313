package content

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// blockElements separate words when their tags are removed.
var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true, atom.Ul: true, atom.Ol: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Pre: true, atom.Address: true, atom.Caption: true, atom.Blockquote: true,
	atom.Tr: true, atom.Td: true, atom.Th: true,
}

// StripTags returns the text of an HTML fragment with entities decoded and
// runs of whitespace collapsed to one space. A tag cut off at the end of the
// input is dropped.
func StripTags(fragment string) string {
	z := html.NewTokenizer(strings.NewReader(fragment))

	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if a == atom.Script || a == atom.Style {
				skip++
			}
			if blockElements[a] {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			a := atom.Lookup(name)
			if (a == atom.Script || a == atom.Style) && skip > 0 {
				skip--
			}
			if blockElements[a] {
				b.WriteByte(' ')
			}
		}
	}
}

// ImageSources returns the src of every <img> in the fragment, in document order.
func ImageSources(fragment string) []string {
	z := html.NewTokenizer(strings.NewReader(fragment))

	var srcs []string
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return srcs
		}
		if tt != html.StartTagToken && tt != html.SelfClosingTagToken {
			continue
		}
		name, hasAttr := z.TagName()
		if atom.Lookup(name) != atom.Img {
			continue
		}
		for hasAttr {
			var key, val []byte
			key, val, hasAttr = z.TagAttr()
			if string(key) == "src" && len(val) > 0 {
				srcs = append(srcs, string(val))
			}
		}
	}
}
