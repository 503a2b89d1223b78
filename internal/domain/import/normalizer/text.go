// Package normalizer folds invoice text so headers and keywords can be
// compared regardless of accents, case and spacing.
package normalizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold strips diacritics (NFKD, drop combining marks) and lowercases.
// "Referência" becomes "referencia".
func Fold(s string) string {
	// transform.Chain keeps state, so build one per call.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Key folds s and keeps only ASCII letters and digits: "Valor (R$)" -> "valorr".
func Key(s string) string {
	return keep(Fold(s), func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
	})
}

// LettersKey folds s and keeps only ASCII letters: "Total a Pagar (R$)" -> "totalapagarr".
func LettersKey(s string) string {
	return keep(Fold(s), func(r rune) bool {
		return r >= 'a' && r <= 'z'
	})
}

func keep(s string, ok func(rune) bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if ok(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CollapseSpaces trims s and squeezes every whitespace run to one space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IsBlank reports whether a cell holds no value. Extraction tools render
// missing cells as "" or as the literal "nan".
func IsBlank(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "nan")
}
