// Package normalize canonicalizes category and district names so that
// spelling variants differing only by case or diacritics share one key.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// residual maps letters that have no canonical decomposition into base + mark
var residual = strings.NewReplacer(
	"Ñ", "N",
	"Ç", "C",
	"Ø", "O",
)

// newStripper returns a transformer that decomposes text (NFKD) and drops
// nonspacing combining marks. Transformers carry state, so callers get a
// fresh chain every time.
func newStripper() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
}

// String returns the canonical key for s: uppercased, stripped of accents,
// with Ñ, Ç and Ø folded to N, C and O.
func String(s string) string {
	if s == "" {
		return s
	}

	s = strings.ToUpper(s)
	stripped, _, err := transform.String(newStripper(), s)
	if err == nil {
		s = stripped
	}
	// compatibility decomposition can yield lowercase letters (ª -> a)
	s = strings.ToUpper(s)

	return residual.Replace(s)
}

// Key is the nil-propagating form of String. A nil input is returned as is.
func Key(raw *string) *string {
	if raw == nil {
		return nil
	}
	out := String(*raw)
	return &out
}

// Equal reports whether a and b normalize to the same key
func Equal(a, b string) bool {
	return String(a) == String(b)
}
