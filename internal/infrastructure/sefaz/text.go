package sefaz

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldText quita acentos, colapsa espacios y recorta a limit runas (0 = sin
// límite). Todo texto libre que entra al XML pasa por aquí.
func foldText(s string, limit int) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.Join(strings.Fields(folded), " ")
	if limit > 0 {
		if r := []rune(folded); len(r) > limit {
			folded = strings.TrimSpace(string(r[:limit]))
		}
	}
	return folded
}
