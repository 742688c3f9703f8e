// Package search implements accent and case insensitive matching on
// medication names, so "ibuprofene" finds "IBUPROFÈNE".
package search

import (
	"strings"
	"unicode"

	"github.com/giygas/pharmacie/entities"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases s, strips diacritics and collapses '+', '-' and
// whitespace runs to single spaces.
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	stripped = strings.Map(func(r rune) rune {
		if r == '+' || r == '-' {
			return ' '
		}
		return unicode.ToLower(r)
	}, stripped)

	return strings.Join(strings.Fields(stripped), " ")
}

// Filter returns the records whose denomination or pharmaceutical form
// contains every word of term. An empty term matches nothing.
func Filter(medicaments []entities.Medicament, term string) []entities.Medicament {
	words := strings.Fields(Normalize(term))
	results := []entities.Medicament{}
	if len(words) == 0 {
		return results
	}

	for _, m := range medicaments {
		haystack := Normalize(m.Denomination()) + " " + Normalize(m.FormePharmaceutique())
		if containsAll(haystack, words) {
			results = append(results, m)
		}
	}

	return results
}

func containsAll(haystack string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(haystack, w) {
			return false
		}
	}
	return true
}
