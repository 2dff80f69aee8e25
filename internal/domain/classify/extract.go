// Package classify decides whether two reports plausibly describe the same
// kind of object. It combines free-text object-type extraction with the static
// taxonomy tables; evidence from image analysis is tried before the coarse
// category fallback because it is more specific.
package classify

import (
	"strings"
	"unicode"

	"github.com/refind-app/refind/internal/domain/taxonomy"
)

// ExtractObjectType turns a free-text image analysis into a canonical
// lowercase object token. The first line is scanned against the ordered
// keyword table; the first contained keyword wins. With no keyword hit the
// text up to the first period is returned, trimmed. Deterministic and total:
// empty input yields an empty token.
func ExtractObjectType(tax *taxonomy.Taxonomy, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	firstLine := text
	if i := strings.IndexByte(firstLine, '\n'); i >= 0 {
		firstLine = firstLine[:i]
	}
	firstLine = strings.ToLower(firstLine)

	for _, kw := range tax.ObjectKeywords() {
		if strings.Contains(firstLine, kw) {
			return kw
		}
	}

	fallback := strings.ToLower(text)
	if i := strings.IndexByte(fallback, '.'); i >= 0 {
		fallback = fallback[:i]
	}
	return strings.TrimSpace(fallback)
}

// tokenWords splits an extracted object token into comparable words.
func tokenWords(token string) []string {
	return strings.FieldsFunc(token, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
