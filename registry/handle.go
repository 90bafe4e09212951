package registry

import (
	"strings"
	"unicode"
)

// zero-width marks that survive a naive trim and make two visually
// identical handles distinct: U+200B, U+200C, U+200D, U+FEFF.
func isZeroWidth(r rune) bool {
	switch r {
	case '\u200b', '\u200c', '\u200d', '\ufeff':
		return true
	}
	return false
}

// NormalizeHandle strips all whitespace and zero-width marks from the
// requested handle and lower-cases it. The normalized form is what is
// stored, compared and uniquely indexed; callers never see the raw input
// again.
func NormalizeHandle(requested string) string {
	normalized := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || isZeroWidth(r) {
			return -1
		}
		return r
	}, requested)
	return strings.ToLower(normalized)
}
