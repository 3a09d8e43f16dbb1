package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"context"

	"sjsage522/gpuwatcher/internal/scraper"
	"sjsage522/gpuwatcher/pkg/errors"
)

// offerEmbedColor is the accent color used for offer embeds
const offerEmbedColor = 5793266

// DiscordNotifier posts offers to a Discord-compatible webhook. A minimum
// delay is enforced between consecutive posts to respect the endpoint's own
// rate limiting.
type DiscordNotifier struct {
	webhookURL string
	footer     string
	client     *http.Client
	minDelay   time.Duration

	mu       sync.Mutex
	lastPost time.Time
}

// NewDiscordNotifier creates a webhook notifier
func NewDiscordNotifier(webhookURL, footer string, minDelay time.Duration) *DiscordNotifier {
	return &DiscordNotifier{
		webhookURL: webhookURL,
		footer:     footer,
		client:     &http.Client{Timeout: 10 * time.Second},
		minDelay:   minDelay,
	}
}

// Notify builds one embed for the offer and posts it. There is no automatic
// retry: a failed dispatch is the caller's to log and move past.
func (n *DiscordNotifier) Notify(ctx context.Context, offer scraper.Offer) error {
	payload := Payload{
		Embeds: []Embed{
			{
				Title:       fmt.Sprintf("%s - %s", offer.SKU, offer.Title),
				URL:         offer.Link,
				Description: fmt.Sprintf("💰 **Price:** R$ %.2f\n🔗 [View listing](%s)", offer.Price, offer.Link),
				Color:       offerEmbedColor,
				Footer:      &EmbedFooter{Text: n.footer},
				Timestamp:   offer.ObservedAt.Format(time.RFC3339),
			},
		},
	}
	if err := n.Post(ctx, payload); err != nil {
		return errors.NewDispatch(offer.SKU, "webhook post failed", err)
	}
	return nil
}

// Post sends an arbitrary payload to the webhook, honoring the inter-post
// delay. Exposed for the inbound relay, which shares the payload shape.
func (n *DiscordNotifier) Post(ctx context.Context, payload Payload) error {
	if err := n.waitTurn(ctx); err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	// 204 is the webhook's usual answer; any 2xx counts as success
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// waitTurn blocks until minDelay has passed since the previous post. The
// wait is re-derived after every sleep: another poster may have advanced
// lastPost while this one was off the lock.
func (n *DiscordNotifier) waitTurn(ctx context.Context) error {
	n.mu.Lock()
	for {
		wait := n.minDelay - time.Since(n.lastPost)
		if wait <= 0 {
			break
		}
		n.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		n.mu.Lock()
	}
	n.lastPost = time.Now()
	n.mu.Unlock()
	return nil
}
