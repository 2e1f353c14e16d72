package shared

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeEmail canonicalizes an email for storage and comparison:
// trimmed, NFC-normalized, lowercased. Duplicate detection is defined
// over this form.
func NormalizeEmail(email string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(email)))
}

// NormalizeName trims and NFC-normalizes a display name.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
