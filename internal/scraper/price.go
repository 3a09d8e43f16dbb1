package scraper

import (
	"regexp"
	"strconv"
	"strings"
)

// Plausible GPU price bound in currency units. Values outside it are
// normalization noise (a "90" cents fragment, a bundled PC), not offers.
const (
	minPlausiblePrice = 100
	maxPlausiblePrice = 50000
)

// installmentMarkers flag financed-price texts, which never carry the price
// being filtered on. Matching one is a normal negative result.
var installmentMarkers = []string{
	"sem juros",
	"juros",
	"em até",
	"parcel",
	"installment",
	"interest-free",
}

// installmentCountRe matches "10x de", "12× of" and similar multiplier forms
var installmentCountRe = regexp.MustCompile(`(?i)\d+\s*[x×]\s*(de|of)?\b`)

// cashMarkers flag the non-financed price explicitly
var cashMarkers = []string{"à vista", "a vista", "cash"}

// pricePattern pairs a numeric pattern with the canonicalization for its
// separator convention.
type pricePattern struct {
	re        *regexp.Regexp
	canonical func(string) string
}

// pricePatterns are tried in order; the first match against the cleaned text
// wins. Grouped forms go first so the decimal-only patterns cannot bite off
// a fragment of a grouped amount.
var pricePatterns = []pricePattern{
	{
		// 2.199,90 (dot-grouped thousands, comma decimal)
		re: regexp.MustCompile(`\d{1,3}(?:\.\d{3})+,\d{2}`),
		canonical: func(s string) string {
			return strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
		},
	},
	{
		// 2,199.90 (comma-grouped thousands, dot decimal)
		re: regexp.MustCompile(`\d{1,3}(?:,\d{3})+\.\d{2}`),
		canonical: func(s string) string {
			return strings.ReplaceAll(s, ",", "")
		},
	},
	{
		// 2.199 (dot-grouped integer, no decimal part)
		re: regexp.MustCompile(`\d{1,3}(?:\.\d{3})+`),
		canonical: func(s string) string {
			return strings.ReplaceAll(s, ".", "")
		},
	},
	{
		// 2,199 (comma-grouped integer, no decimal part)
		re: regexp.MustCompile(`\d{1,3}(?:,\d{3})+`),
		canonical: func(s string) string {
			return strings.ReplaceAll(s, ",", "")
		},
	},
	{
		// 2199,90 (comma decimal only)
		re: regexp.MustCompile(`\d+,\d{1,2}`),
		canonical: func(s string) string {
			return strings.ReplaceAll(s, ",", ".")
		},
	},
	{
		// 2199.90 (dot decimal only)
		re:        regexp.MustCompile(`\d+\.\d{1,2}`),
		canonical: func(s string) string { return s },
	},
	{
		// 2199 (bare integer)
		re:        regexp.MustCompile(`\d+`),
		canonical: func(s string) string { return s },
	},
}

// NormalizePrice converts locale-formatted price text into a validated
// numeric value. ok is false for installment texts, unparseable texts, and
// values outside the plausible bound; none of these are errors.
func NormalizePrice(text string) (float64, bool) {
	clean := cleanPriceText(text)
	if clean == "" {
		return 0, false
	}

	lower := strings.ToLower(clean)
	for _, marker := range installmentMarkers {
		if strings.Contains(lower, marker) {
			return 0, false
		}
	}
	if installmentCountRe.MatchString(clean) {
		return 0, false
	}

	for _, p := range pricePatterns {
		match := p.re.FindString(clean)
		if match == "" {
			continue
		}
		value, err := strconv.ParseFloat(p.canonical(match), 64)
		if err != nil {
			return 0, false
		}
		if value < minPlausiblePrice || value > maxPlausiblePrice {
			return 0, false
		}
		return value, true
	}
	return 0, false
}

// PickPrice resolves a card's set of price texts to one value: the first
// text explicitly marked as a cash price wins, otherwise the minimum of all
// values that pass normalization. Best-effort heuristic for cards showing
// both a lower cash price and a higher nominal price.
func PickPrice(texts []string) (float64, bool) {
	var best float64
	found := false

	for _, text := range texts {
		value, ok := NormalizePrice(text)
		if !ok {
			continue
		}
		if hasCashMarker(text) {
			return value, true
		}
		if !found || value < best {
			best = value
			found = true
		}
	}
	return best, found
}

func hasCashMarker(text string) bool {
	lower := strings.ToLower(cleanPriceText(text))
	for _, marker := range cashMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// cleanPriceText strips non-breaking spaces and the currency-symbol prefix
func cleanPriceText(text string) string {
	clean := strings.ReplaceAll(text, "\u00a0", " ")
	clean = strings.ReplaceAll(clean, "R$", " ")
	clean = strings.ReplaceAll(clean, "$", " ")
	return strings.TrimSpace(clean)
}
