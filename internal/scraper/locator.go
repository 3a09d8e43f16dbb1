package scraper

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"sjsage522/gpuwatcher/logger"
)

// CardStrategy locates candidate listing cards in a document. Strategies are
// tried in strict priority order; the first one yielding at least one
// candidate wins. The chain exists because the retailer's structural class
// names are not stable across deployments.
type CardStrategy interface {
	Name() string
	Locate(doc *Document) []*Card
}

// cardSelectors are the structural class patterns known to represent listing
// cards, most specific first.
var cardSelectors = []string{
	"div.productCard",
	"article[class*='productCard']",
	"div[class*='productCard']",
	"li[class*='productCard']",
	"div[class*='cardProduct']",
}

// productPathRe matches product-detail link targets
var productPathRe = regexp.MustCompile(`(?i)/produto/\d+`)

// currencyTextRe matches a currency-amount fragment inside element text
var currencyTextRe = regexp.MustCompile(`R?\$\s?\d[\d.,]*`)

// priceAncestorHops bounds the ancestor walk of the last-resort strategy
const priceAncestorHops = 4

// selectorStrategy queries an ordered list of structural selectors and takes
// the union, de-duplicated by element identity.
type selectorStrategy struct {
	selectors []string
}

func (s *selectorStrategy) Name() string { return "structural-selectors" }

func (s *selectorStrategy) Locate(doc *Document) []*Card {
	seen := make(map[*html.Node]bool)
	var cards []*Card
	for _, selector := range s.selectors {
		for _, c := range doc.findAll(selector) {
			n := c.node()
			if n == nil || seen[n] {
				continue
			}
			seen[n] = true
			cards = append(cards, c)
		}
	}
	return cards
}

// anchorStrategy finds anchors pointing at product-detail pages and takes
// each anchor's containing block element as the candidate.
type anchorStrategy struct{}

func (s *anchorStrategy) Name() string { return "product-anchors" }

func (s *anchorStrategy) Locate(doc *Document) []*Card {
	seen := make(map[*html.Node]bool)
	var cards []*Card
	doc.doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !productPathRe.MatchString(href) {
			return
		}
		block := a.Parent().Closest("div, li, article, section, tr")
		if block.Length() == 0 {
			block = a.Parent()
		}
		if block.Length() == 0 {
			return
		}
		c := newCard(block)
		n := c.node()
		if n == nil || seen[n] {
			return
		}
		seen[n] = true
		cards = append(cards, c)
	})
	return cards
}

// priceTextStrategy is the last resort: find elements whose own text looks
// like a currency amount, then walk up the ancestor chain until the text
// content stops strictly growing, bounded to a few levels. Trades precision
// for availability.
type priceTextStrategy struct{}

func (s *priceTextStrategy) Name() string { return "price-text-ancestors" }

func (s *priceTextStrategy) Locate(doc *Document) []*Card {
	seen := make(map[*html.Node]bool)
	var cards []*Card
	doc.doc.Find("body *").Each(func(_ int, el *goquery.Selection) {
		// Only leaf elements carrying the amount themselves
		if el.Children().Length() > 0 {
			return
		}
		if !currencyTextRe.MatchString(el.Text()) {
			return
		}

		cur := el
		for hop := 0; hop < priceAncestorHops; hop++ {
			p := cur.Parent()
			if p.Length() == 0 {
				break
			}
			if name := goquery.NodeName(p); name == "body" || name == "html" {
				break
			}
			grew := len(strings.TrimSpace(p.Text())) > len(strings.TrimSpace(cur.Text()))
			cur = p
			if !grew {
				// Containment boundary: the ancestor adds no text of its own
				break
			}
		}

		c := newCard(cur)
		n := c.node()
		if n == nil || seen[n] {
			return
		}
		seen[n] = true
		cards = append(cards, c)
	})
	return cards
}

// Locator applies card strategies in priority order
type Locator struct {
	strategies []CardStrategy
	log        *logger.Logger
}

// NewLocator creates a locator with the default fallback chain
func NewLocator(log *logger.Logger) *Locator {
	return &Locator{
		strategies: []CardStrategy{
			&selectorStrategy{selectors: cardSelectors},
			&anchorStrategy{},
			&priceTextStrategy{},
		},
		log: log,
	}
}

// Locate returns the candidates from the first strategy that yields any.
// An empty result is a normal "no offers this round" outcome.
func (l *Locator) Locate(doc *Document) []*Card {
	for _, strategy := range l.strategies {
		cards := strategy.Locate(doc)
		if len(cards) > 0 {
			if l.log != nil {
				l.log.Debug().
					Str("strategy", strategy.Name()).
					Int("candidates", len(cards)).
					Msg("Located listing cards")
			}
			return cards
		}
	}
	return nil
}
