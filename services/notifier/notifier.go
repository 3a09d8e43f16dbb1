// Package notifier dispatches admitted offers to the configured webhook
// endpoint.
package notifier

import (
	"context"

	"sjsage522/gpuwatcher/internal/scraper"
)

// Notifier sends one structured notification per admitted offer
type Notifier interface {
	Notify(ctx context.Context, offer scraper.Offer) error
}

// Embed is one rich block inside a webhook payload
type Embed struct {
	Title       string       `json:"title,omitempty"`
	URL         string       `json:"url,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Image       *EmbedImage  `json:"image,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

// EmbedFooter labels the embed's origin
type EmbedFooter struct {
	Text string `json:"text"`
}

// EmbedImage attaches an image by URL
type EmbedImage struct {
	URL string `json:"url"`
}

// Payload is the JSON document posted to the webhook. Content and Embeds
// may be used independently.
type Payload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}
