package scraper

import (
	"fmt"
	"net/url"
	"strings"

	"sjsage522/gpuwatcher/helpers"
)

// titleSelectors are tried in order; the first non-empty text wins
var titleSelectors = []string{
	"span.nameCard",
	"span[class*='nameCard']",
	"h2 a",
	"h3 a",
	"[class*='name']",
}

// priceSelectors are collected exhaustively: cards commonly show several
// price variants at once (cash vs installment), so every match contributes a
// price text.
var priceSelectors = []string{
	"span.priceCard",
	"span[class*='priceCard']",
	"[class*='price']",
}

const maxTitleRunes = 100

// FieldExtractor pulls title, price texts, and link out of a candidate card
// via ordered fallback selector lists.
type FieldExtractor struct {
	base *url.URL
}

// NewFieldExtractor creates an extractor resolving links against the site
// origin.
func NewFieldExtractor(baseURL string) (*FieldExtractor, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	return &FieldExtractor{base: base}, nil
}

// Extract pulls the raw offer fields from one card. ok is false when not
// even a title could be recovered; that is a normal extraction miss.
func (e *FieldExtractor) Extract(card *Card) (ExtractedOffer, bool) {
	title := e.extractTitle(card)
	if title == "" {
		return ExtractedOffer{}, false
	}

	offer := ExtractedOffer{
		Title:      title,
		PriceTexts: e.extractPriceTexts(card),
		RawLink:    e.extractLink(card, title),
	}
	return offer, true
}

func (e *FieldExtractor) extractTitle(card *Card) string {
	for _, selector := range titleSelectors {
		if c := card.First(selector); c != nil {
			if text := helpers.CollapseWhitespace(c.Text()); text != "" {
				return text
			}
		}
	}

	// The card's own title/alt-style attributes
	for _, attr := range []string{"title", "aria-label", "alt"} {
		if v, ok := card.Attr(attr); ok {
			if text := helpers.CollapseWhitespace(v); text != "" {
				return text
			}
		}
	}

	// Last resort: the card's own text, bounded
	return helpers.TruncateRunes(helpers.CollapseWhitespace(card.Text()), maxTitleRunes)
}

func (e *FieldExtractor) extractPriceTexts(card *Card) []string {
	var texts []string
	seen := make(map[string]bool)
	for _, selector := range priceSelectors {
		for _, c := range card.Find(selector) {
			text := helpers.CollapseWhitespace(c.Text())
			if text == "" || seen[text] {
				continue
			}
			seen[text] = true
			texts = append(texts, text)
		}
		if len(texts) > 0 {
			break
		}
	}
	return texts
}

func (e *FieldExtractor) extractLink(card *Card, title string) string {
	// Preferred: an anchor pointing at a product-detail page
	for _, a := range card.Find("a[href]") {
		if href, ok := a.Attr("href"); ok && productPathRe.MatchString(href) {
			if link := e.resolve(href); link != "" {
				return link
			}
		}
	}

	// Any anchor inside the candidate
	if a := card.First("a[href]"); a != nil {
		if href, ok := a.Attr("href"); ok && strings.TrimSpace(href) != "" {
			if link := e.resolve(href); link != "" {
				return link
			}
		}
	}

	// An ancestor anchor (the whole card may be wrapped in one)
	if a := card.Closest("a[href]"); a != nil {
		if href, ok := a.Attr("href"); ok && strings.TrimSpace(href) != "" {
			if link := e.resolve(href); link != "" {
				return link
			}
		}
	}

	// No usable anchor: synthesize a search-query link from the title rather
	// than dropping the offer or emitting an empty link.
	return e.base.ResolveReference(&url.URL{
		Path: "/busca/" + helpers.Slugify(helpers.TruncateRunes(title, 60)),
	}).String()
}

// resolve makes a link absolute against the site origin; "" when the href
// does not parse
func (e *FieldExtractor) resolve(href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return e.base.ResolveReference(ref).String()
}
