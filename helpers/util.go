package helpers

import (
	"strings"
	"unicode"
)

// Slugify lowers a search term into the hyphenated form the retailer uses for
// path-segment searches ("RTX 4060" -> "rtx-4060").
func Slugify(term string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(strings.TrimSpace(term)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case unicode.IsSpace(r), r == '-', r == '_', r == '/':
			if !lastHyphen {
				b.WriteRune('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// TruncateRunes shortens s to at most n runes
func TruncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// CollapseWhitespace trims s and folds runs of whitespace into single spaces
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
