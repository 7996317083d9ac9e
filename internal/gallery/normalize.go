package gallery

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string
// (e.g., "Pérez" -> "Perez").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizeName normalizes a person name for comparison: no diacritics,
// lowercase, collapsed whitespace.
func NormalizeName(name string) string {
	name = RemoveDiacritics(name)
	name = strings.ToLower(name)
	return strings.Join(strings.Fields(name), " ")
}

// NormalizeRUT canonicalizes a RUT-like identity key: dots and spaces
// stripped, verifier digit uppercased, single dash before the verifier.
// "12.345.678-k" and "12345678K" normalize to the same key.
func NormalizeRUT(rut string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9':
			return r
		case r == 'k' || r == 'K':
			return 'K'
		default:
			return -1
		}
	}, rut)

	if len(cleaned) < 2 {
		return cleaned
	}
	return cleaned[:len(cleaned)-1] + "-" + cleaned[len(cleaned)-1:]
}
