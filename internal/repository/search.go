package repository

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldSearchKey lowercases s and strips combining marks so that
// "Açaí" and "acai" compare equal.
func FoldSearchKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	lower := strings.ToLower(s)
	folded, _, err := transform.String(t, lower)
	if err != nil {
		folded = lower
	}
	return strings.TrimSpace(folded)
}
