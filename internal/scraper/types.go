package scraper

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
	"time"
)

// SearchTarget is one monitored SKU variant with its price ceiling.
// Immutable during a run.
type SearchTarget struct {
	SKU      string  `json:"sku"`
	Pattern  string  `json:"pattern,omitempty"` // optional explicit match regex; derived from SKU when empty
	MaxPrice float64 `json:"max_price"`
}

// FetchResult is the outcome of one accepted search request. Discarded after
// parsing.
type FetchResult struct {
	RequestedURL string
	FinalURL     string
	Status       int
	Body         []byte
}

// ExtractedOffer holds the raw fields pulled from one candidate card before
// any validation.
type ExtractedOffer struct {
	Title      string
	PriceTexts []string
	RawLink    string
}

// Offer is a fully validated listing: the price passed normalization and the
// plausibility bound, the title matched the target SKU, and the link is an
// absolute URL (synthesized from the title when the card carried no anchor).
type Offer struct {
	SKU        string    `json:"sku"`
	Title      string    `json:"title"`
	Price      float64   `json:"price"`
	Link       string    `json:"link"`
	ObservedAt time.Time `json:"observed_at"`
}

// Fingerprint derives the deduplication key from the SKU, the normalized
// title, and the price rounded to whole currency units. The rounding keeps
// cent-level wobble on the same listing from producing fresh notifications.
func (o Offer) Fingerprint() string {
	normTitle := strings.Join(strings.Fields(strings.ToLower(o.Title)), " ")
	rounded := strconv.Itoa(int(math.Round(o.Price)))
	sum := sha256.Sum256([]byte(o.SKU + "|" + normTitle + "|" + rounded))
	return hex.EncodeToString(sum[:])
}
