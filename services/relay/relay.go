// Package relay forwards arbitrary inbound chat messages to the same
// webhook payload shape the offer pipeline uses. The pipeline does not
// depend on this path.
package relay

import (
	"context"
	"strings"

	"sjsage522/gpuwatcher/helpers"
	"sjsage522/gpuwatcher/services/notifier"
)

// relayEmbedColor is the accent color used for relayed messages
const relayEmbedColor = 0x00ff00

// maxRelayedRunes bounds the forwarded text to the webhook's description limit
const maxRelayedRunes = 2000

// Message is one inbound chat message to forward
type Message struct {
	Text     string
	Caption  string
	ImageURL string
}

// Relay forwards inbound messages to the notification endpoint
type Relay interface {
	Forward(ctx context.Context, msg Message) error
}

// Poster is the slice of the notifier the relay needs
type Poster interface {
	Post(ctx context.Context, payload notifier.Payload) error
}

// WebhookRelay forwards messages through the webhook notifier
type WebhookRelay struct {
	poster Poster
	footer string
}

// NewWebhookRelay creates a relay posting through the given notifier
func NewWebhookRelay(poster Poster, footer string) *WebhookRelay {
	return &WebhookRelay{poster: poster, footer: footer}
}

// Forward posts the message's text (or caption) and first image as an embed.
// When the text carries a link, a bare-content follow-up is posted too so
// the receiving side renders a preview.
func (r *WebhookRelay) Forward(ctx context.Context, msg Message) error {
	content := msg.Text
	if content == "" {
		content = msg.Caption
	}
	content = helpers.TruncateRunes(content, maxRelayedRunes)

	embed := notifier.Embed{
		Title:       "📦 New promotion relayed",
		Description: content,
		Color:       relayEmbedColor,
		Footer:      &notifier.EmbedFooter{Text: r.footer},
	}
	if msg.ImageURL != "" {
		embed.Image = &notifier.EmbedImage{URL: msg.ImageURL}
	}

	if err := r.poster.Post(ctx, notifier.Payload{Embeds: []notifier.Embed{embed}}); err != nil {
		return err
	}

	if strings.Contains(strings.ToLower(content), "http") {
		return r.poster.Post(ctx, notifier.Payload{Content: content})
	}
	return nil
}
