package content

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Fold returns s NFKC-normalised and Unicode case-folded. Search columns and
// search terms are both compared in this form, so matching does not depend on
// how the database lowercases text.
func Fold(s string) string {
	return cases.Fold().String(norm.NFKC.String(s))
}
