package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases text, strips combining marks, and collapses whitespace so
// "  Élodie   MÜLLER " and "elodie muller" compare equal.
func Fold(value string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, value)
	if err != nil {
		stripped = value
	}
	lowered := cases.Fold().String(cases.Lower(language.Und).String(stripped))
	return strings.Join(strings.Fields(lowered), " ")
}

// Tokens splits folded text into whitespace-separated tokens.
func Tokens(value string) []string {
	return strings.Fields(Fold(value))
}
