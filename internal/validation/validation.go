// Package validation holds the pure predicates and normalisers applied to
// form input before it reaches the store.
package validation

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	alphabeticPattern = regexp.MustCompile(`^[A-Za-z\s]+$`)
	iataPattern       = regexp.MustCompile(`^[A-Z]{3}$`)
)

// IsAlphabetic reports whether s is made only of ASCII letters and whitespace.
func IsAlphabetic(s string) bool {
	return alphabeticPattern.MatchString(s)
}

// IsIATACode reports whether s is exactly three uppercase letters.
func IsIATACode(s string) bool {
	return iataPattern.MatchString(s)
}

// TitleCase trims s and title-cases every word.
func TitleCase(s string) string {
	return cases.Title(language.English).String(strings.TrimSpace(s))
}

func NormalizeCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// SameText compares case-insensitively, ignoring how words are spaced.
func SameText(a, b string) bool {
	fa := strings.Fields(cases.Fold().String(a))
	fb := strings.Fields(cases.Fold().String(b))
	if len(fa) != len(fb) {
		return false
	}
	for i := range fa {
		if fa[i] != fb[i] {
			return false
		}
	}
	return true
}
