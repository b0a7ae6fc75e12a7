package structure

import "golang.org/x/text/unicode/norm"

// Normalize applies NFKC normalization to extracted text. PDF text
// layers carry typographic ligatures (ﬁ, ﬂ) and non-breaking spaces
// that would defeat header and caption matching; NFKC folds them to
// their plain equivalents.
func Normalize(s string) string {
	return norm.NFKC.String(s)
}
