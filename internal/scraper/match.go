package scraper

import (
	"fmt"
	"regexp"
	"strings"
)

// variantTokens are model suffixes that name a different SKU tier. A base
// model match immediately followed by one of these is a sibling variant, not
// the target ("RTX 4060 Ti" must not satisfy a search for "RTX 4060").
var variantTokens = []string{"ti", "super", "xt", "xtx"}

// SkuMatcher confirms a listing title names the exact SKU variant being
// searched for.
type SkuMatcher struct {
	sku      string
	re       *regexp.Regexp
	excluded map[string]bool
}

// NewSkuMatcher builds a matcher for one search target. When the target
// carries no explicit pattern, one is derived from the SKU tokens:
// case-insensitive, tolerant of repeated whitespace.
func NewSkuMatcher(target SearchTarget) (*SkuMatcher, error) {
	pattern := target.Pattern
	tokens := strings.Fields(strings.ToLower(target.SKU))
	if len(tokens) == 0 && pattern == "" {
		return nil, fmt.Errorf("empty SKU in search target")
	}

	if pattern == "" {
		escaped := make([]string, len(tokens))
		for i, tok := range tokens {
			escaped[i] = regexp.QuoteMeta(tok)
		}
		pattern = `(?i)\b` + strings.Join(escaped, `\s+`) + `\b`
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid match pattern for %q: %w", target.SKU, err)
	}

	// Variant tokens the target itself names stay allowed; the rest void a
	// match when they directly follow it. RE2 has no lookahead, so the
	// trailing token is inspected after matching.
	excluded := make(map[string]bool)
	for _, v := range variantTokens {
		excluded[v] = true
	}
	for _, tok := range tokens {
		delete(excluded, tok)
	}

	return &SkuMatcher{sku: target.SKU, re: re, excluded: excluded}, nil
}

// Match reports whether the title names the target SKU variant
func (m *SkuMatcher) Match(title string) bool {
	normalized := strings.Join(strings.Fields(title), " ")
	for _, loc := range m.re.FindAllStringIndex(normalized, -1) {
		if !m.followedByVariant(normalized[loc[1]:]) {
			return true
		}
	}
	return false
}

// followedByVariant reports whether the text right after a match starts with
// an excluded variant token.
func (m *SkuMatcher) followedByVariant(tail string) bool {
	fields := strings.Fields(tail)
	if len(fields) == 0 {
		return false
	}
	next := strings.ToLower(strings.Trim(fields[0], ".,;:()[]-"))
	return m.excluded[next]
}
