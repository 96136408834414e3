package slug

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxLen = 48

// Make lowercases input and joins runs of letters and digits with single
// dashes. Non-ASCII letters are kept. An input with nothing usable yields
// fallback.
func Make(input, fallback string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(input) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	s := b.String()
	if len(s) > maxLen {
		s = strings.TrimRight(truncate(s, maxLen), "-")
	}
	if s == "" {
		return fallback
	}
	return s
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	end := 0
	for i, r := range s {
		next := i + utf8.RuneLen(r)
		if next > n {
			break
		}
		end = next
	}
	return s[:end]
}
