package services

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// normalizeText canonicalises free text typed by users: NFC composition so
// visually identical strings compare equal, and runs of whitespace collapsed
// to a single space.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
