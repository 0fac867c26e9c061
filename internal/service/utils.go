package service

import (
	"strings"
	"unicode/utf8"
)

// cleanText drops invalid UTF-8 sequences and NUL runes from backend text.
// PostgreSQL refuses both inside a JSONB document, and the record ends up
// archived as one.
func cleanText(s string) string {
	if utf8.ValidString(s) && !strings.ContainsRune(s, 0) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		s = s[size:]
		if (r == utf8.RuneError && size == 1) || r == 0 {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
