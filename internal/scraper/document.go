package scraper

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Document is a parsed listing page
type Document struct {
	doc *goquery.Document
}

// ParseDocument parses raw markup into a navigable document tree
func ParseDocument(body []byte) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("HTML parse error: %w", err)
	}
	return &Document{doc: doc}, nil
}

// Card is an opaque handle to one candidate listing element. It exposes only
// text content, attribute lookup, and child selection; callers must not
// assume anything else about the underlying node.
type Card struct {
	sel *goquery.Selection
}

func newCard(sel *goquery.Selection) *Card {
	return &Card{sel: sel}
}

// Text returns the element's text content
func (c *Card) Text() string {
	return c.sel.Text()
}

// Attr looks up an attribute on the element itself
func (c *Card) Attr(name string) (string, bool) {
	return c.sel.Attr(name)
}

// Find returns the descendants matching the selector, in document order
func (c *Card) Find(selector string) []*Card {
	var cards []*Card
	c.sel.Find(selector).Each(func(_ int, s *goquery.Selection) {
		cards = append(cards, newCard(s))
	})
	return cards
}

// First returns the first descendant matching the selector, or nil
func (c *Card) First(selector string) *Card {
	s := c.sel.Find(selector).First()
	if s.Length() == 0 {
		return nil
	}
	return newCard(s)
}

// Closest returns the nearest ancestor (including self) matching the
// selector, or nil
func (c *Card) Closest(selector string) *Card {
	s := c.sel.Closest(selector)
	if s.Length() == 0 {
		return nil
	}
	return newCard(s)
}

// node returns the element's identity for de-duplication across strategies
func (c *Card) node() *html.Node {
	if len(c.sel.Nodes) == 0 {
		return nil
	}
	return c.sel.Nodes[0]
}

// findAll returns every match for a selector across the whole document
func (d *Document) findAll(selector string) []*Card {
	var cards []*Card
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		cards = append(cards, newCard(s))
	})
	return cards
}
