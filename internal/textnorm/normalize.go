// Package textnorm canonicalises text so that spellings which differ only by
// diacritics or letter case compare equal.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// đ/Đ are distinct letters rather than d plus a combining mark, so
// decomposition leaves them untouched.
var strokeReplacer = strings.NewReplacer("đ", "d", "Đ", "D")

// Normalize decomposes s, strips combining marks, folds đ/Đ to d, lowercases
// and trims surrounding whitespace. It never fails: characters it does not
// understand are returned unchanged.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		// Invalid input: fall back to the original text rather than failing.
		out = s
	}

	out = strokeReplacer.Replace(out)
	return strings.TrimSpace(strings.ToLower(out))
}
