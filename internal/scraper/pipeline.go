package scraper

import (
	"context"
	"time"

	"sjsage522/gpuwatcher/logger"
	"sjsage522/gpuwatcher/pkg/errors"
	"sjsage522/gpuwatcher/services/metrics"
)

// Notifier dispatches one admitted offer to the notification endpoint
type Notifier interface {
	Notify(ctx context.Context, offer Offer) error
}

// Pipeline runs the full extraction sequence for one search target:
// fetch, parse, locate, extract, normalize+match, filter, dedup, notify.
type Pipeline struct {
	fetcher   *Fetcher
	locator   *Locator
	extractor *FieldExtractor
	dedup     *Deduplicator
	notifier  Notifier
}

// NewPipeline wires the pipeline stages together
func NewPipeline(fetcher *Fetcher, locator *Locator, extractor *FieldExtractor, dedup *Deduplicator, notifier Notifier) *Pipeline {
	return &Pipeline{
		fetcher:   fetcher,
		locator:   locator,
		extractor: extractor,
		dedup:     dedup,
		notifier:  notifier,
	}
}

// Run processes one target and returns the number of offers dispatched.
// Extraction misses and validation rejections are normal negatives; only
// fetch and storage problems surface as errors, and the caller advances to
// the next target either way.
func (p *Pipeline) Run(ctx context.Context, target SearchTarget) (int, error) {
	log := logger.ForTarget(target.SKU)

	matcher, err := NewSkuMatcher(target)
	if err != nil {
		return 0, errors.NewValidation(target.SKU, err.Error())
	}

	res, err := p.fetcher.Search(ctx, target.SKU)
	if err != nil {
		return 0, errors.NewNetwork(target.SKU, "search fetch failed", err)
	}
	if res == nil {
		log.Debug().Msg("No usable listing page this round")
		return 0, nil
	}

	doc, err := ParseDocument(res.Body)
	if err != nil {
		return 0, errors.NewParsing(target.SKU, "listing page parse failed", err)
	}

	cards := p.locator.Locate(doc)
	if len(cards) == 0 {
		log.Debug().Str("url", res.FinalURL).Msg("No candidate cards located")
		return 0, nil
	}

	dispatched := 0
	for _, card := range cards {
		if ctx.Err() != nil {
			return dispatched, ctx.Err()
		}

		extracted, ok := p.extractor.Extract(card)
		if !ok {
			continue
		}

		price, ok := PickPrice(extracted.PriceTexts)
		if !ok {
			continue
		}
		if !matcher.Match(extracted.Title) {
			continue
		}
		if !WithinBudget(price, target) {
			continue
		}

		offer := Offer{
			SKU:        target.SKU,
			Title:      extracted.Title,
			Price:      price,
			Link:       extracted.RawLink,
			ObservedAt: time.Now().UTC(),
		}

		admitted, err := p.dedup.Admit(ctx, offer)
		if err != nil {
			// Without a recorded fingerprint a dispatch could repeat next
			// round, so skip it.
			log.Error().Err(err).Str("title", offer.Title).Msg("History store failure")
			continue
		}
		if !admitted {
			continue
		}

		metrics.OffersAdmitted.WithLabelValues(target.SKU).Inc()

		if err := p.notifier.Notify(ctx, offer); err != nil {
			// The offer stays recorded as seen; losing a notification beats
			// spamming duplicates.
			metrics.NotificationFailures.Inc()
			log.Error().Err(err).Str("title", offer.Title).Msg("Notification dispatch failed")
			continue
		}
		metrics.NotificationsSent.Inc()
		dispatched++

		log.Info().
			Str("title", offer.Title).
			Float64("price", offer.Price).
			Str("link", offer.Link).
			Msg("Offer dispatched")
	}

	return dispatched, nil
}
