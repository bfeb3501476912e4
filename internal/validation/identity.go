// Package validation contiene las reglas de forma de los datos de identidad
// que se chequean antes de cualquier llamada remota.
package validation

import (
	"strings"
	"unicode"
)

// Confirmation code rules:
// - Whitespace is removed anywhere in the input ("123 456" -> "123456").
// - Exactly 6 characters after stripping.
// - ASCII digits only (no full-width or other Unicode digits).
//
// Examples valid: 123456, " 123 456", "12 34\t56"
// Examples invalid: 12a456, 1234567, 12345, "", ١٢٣٤٥٦
const ConfirmationCodeLen = 6

// NormalizeConfirmationCode removes every whitespace rune.
func NormalizeConfirmationCode(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// ValidConfirmationCode reports whether an already normalized code has the
// expected shape.
func ValidConfirmationCode(s string) bool {
	if len(s) != ConfirmationCodeLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// NormalizeUsername trims and lower-cases. Applies to emails and to bare
// usernames alike.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidEmail only requires a non-empty value containing "@".
func ValidEmail(s string) bool {
	return s != "" && strings.Contains(s, "@")
}
