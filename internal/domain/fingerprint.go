package domain

import (
	"strings"
	"unicode"
)

// FingerprintPrefixLen is the number of normalized text runes kept in a fingerprint.
const FingerprintPrefixLen = 50

// Fingerprint identifies a quote for deduplication within one category.
// It is never part of harvested output.
type Fingerprint string

// NewFingerprint derives the identity of a quote from its text and author.
// Case, punctuation and whitespace differences collapse to the same value.
func NewFingerprint(text, author string) Fingerprint {
	normalized := normalizeText(text)

	runes := []rune(normalized)
	if len(runes) > FingerprintPrefixLen {
		normalized = strings.TrimSpace(string(runes[:FingerprintPrefixLen]))
	}

	return Fingerprint(normalized + "|" + strings.Join(strings.Fields(strings.ToLower(author)), " "))
}

// normalizeText lowercases, drops everything but letters, digits and spaces,
// and collapses whitespace runs.
func normalizeText(text string) string {
	var b strings.Builder

	b.Grow(len(text))

	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
