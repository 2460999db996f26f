// Package names normalizes free-text collaborator names and matches them
// against the names already on the board.
package names

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Standardize trims raw, collapses inner whitespace and title-cases every
// word, keeping word order. "  bob   SMITH " becomes "Bob Smith".
func Standardize(raw string) string {
	words := strings.Fields(raw)
	if len(words) == 0 {
		return ""
	}
	// A Caser keeps state between calls, so each call gets its own.
	caser := cases.Title(language.Und)
	for i, w := range words {
		words[i] = caser.String(w)
	}
	return strings.Join(words, " ")
}

// Resolve finds the existing name raw refers to. An exact match on the
// standardized form wins; otherwise the first existing name made of the same
// words in any order and case is returned.
func Resolve(raw string, existing []string) (string, bool) {
	canonical := Standardize(raw)
	if canonical == "" {
		return "", false
	}
	trimmed := strings.TrimSpace(raw)
	for _, name := range existing {
		if name == canonical || name == trimmed {
			return name, true
		}
	}

	key := tokenKey(canonical)
	for _, name := range existing {
		if slices.Equal(tokenKey(Standardize(name)), key) {
			return name, true
		}
	}
	return "", false
}

// Same reports whether a and b name the same collaborator.
func Same(a, b string) bool {
	ka := tokenKey(Standardize(a))
	return len(ka) > 0 && slices.Equal(ka, tokenKey(Standardize(b)))
}

// tokenKey is the sorted, lower-cased word multiset of s.
func tokenKey(s string) []string {
	words := strings.Fields(strings.ToLower(s))
	slices.Sort(words)
	return words
}
