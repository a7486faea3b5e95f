// Package fuzzy provides typo-tolerant text matching for Luka conversations.
//
// It canonicalizes free text (case, whitespace, diacritics) and selects the
// closest candidate from small closed vocabularies using a
// Ratcliff/Obershelp similarity ratio.
package fuzzy

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Normalize trims surrounding whitespace, lower-cases, and strips combining
// diacritical marks via NFD decomposition. It is deterministic, idempotent,
// and total over all strings (empty maps to empty).
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToLower(strings.TrimSpace(s))
	decomposed := norm.NFD.String(s)
	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Title returns the text title-cased for display, used when storing the
// user's name during onboarding. A caser is created per call; they are not
// safe for concurrent use.
func Title(s string) string {
	return cases.Title(language.Spanish).String(strings.TrimSpace(s))
}
