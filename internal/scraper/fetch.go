package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"sjsage522/gpuwatcher/helpers"
	"sjsage522/gpuwatcher/logger"
	"sjsage522/gpuwatcher/pkg/errors"
	"sjsage522/gpuwatcher/services/cache"
	"sjsage522/gpuwatcher/services/metrics"
)

// errRateLimited marks a 429/430 answer from the site
var errRateLimited = fmt.Errorf("rate limited by remote site")

// FetcherConfig configures a Fetcher
type FetcherConfig struct {
	BaseURL   string
	Timeout   time.Duration
	JitterMax time.Duration
	Warmup    bool
	CacheKey  string
	BlockTime time.Duration
}

// Fetcher builds candidate search URLs for a term and issues GETs with
// rotating client profiles and jitter. All outbound requests share one rate
// limiter regardless of how many workers call Search.
type Fetcher struct {
	base      *url.URL
	client    *http.Client
	cacheSvc  cache.CacheService
	cacheKey  string
	blockTime time.Duration
	limiter   *rate.Limiter
	timeout   time.Duration
	jitterMax time.Duration
	warmup    bool
	warmOnce  sync.Once
	log       *logger.Logger
}

// NewFetcher creates a fetcher. cacheSvc holds the block key set when the
// site rate-limits us; limiter may be shared across fetch workers.
func NewFetcher(cfg FetcherConfig, cacheSvc cache.CacheService, limiter *rate.Limiter, log *logger.Logger) (*Fetcher, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	blockTime := cfg.BlockTime
	if blockTime <= 0 {
		blockTime = 10 * time.Minute
	}
	return &Fetcher{
		base:      base,
		client:    &http.Client{},
		cacheSvc:  cacheSvc,
		cacheKey:  cfg.CacheKey,
		blockTime: blockTime,
		limiter:   limiter,
		timeout:   timeout,
		jitterMax: cfg.JitterMax,
		warmup:    cfg.Warmup,
		log:       log,
	}, nil
}

// SearchURLs returns the ordered candidate URLs for a search term: the
// path-segment form, the query-parameter form, and the category-filtered
// form. Later entries are fallbacks for when the site stops honoring the
// earlier ones.
func (f *Fetcher) SearchURLs(term string) []string {
	slug := helpers.Slugify(term)
	escaped := url.QueryEscape(term)
	return []string{
		f.base.String() + "/busca/" + slug,
		f.base.String() + "/busca?query=" + escaped,
		f.base.String() + "/hardware/placa-de-video-vga?string=" + escaped,
	}
}

// Search tries each candidate URL in order and returns the first accepted
// result. A (nil, nil) return means the round found no usable listing page;
// that is a normal outcome, not an error.
func (f *Fetcher) Search(ctx context.Context, term string) (*FetchResult, error) {
	if f.cacheSvc != nil && f.cacheKey != "" {
		if _, err := f.cacheSvc.Get(f.cacheKey); err == nil {
			return nil, errors.NewRateLimit(term, f.blockTime)
		}
	}

	f.warmSession(ctx)

	for _, candidate := range f.SearchURLs(term) {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		if err := helpers.SleepJitter(ctx, f.jitterMax); err != nil {
			return nil, err
		}

		res, err := f.get(ctx, candidate)
		if err == errRateLimited {
			if f.cacheSvc != nil && f.cacheKey != "" {
				if setErr := f.cacheSvc.Set(f.cacheKey, []byte(fmt.Sprintf("%d", int(f.blockTime.Seconds()))), f.blockTime); setErr != nil {
					f.log.Warn().Err(setErr).Msg("Failed to set block key")
				}
			}
			metrics.FetchAttempts.WithLabelValues("rate_limited").Inc()
			return nil, errors.NewRateLimit(term, f.blockTime)
		}
		if err != nil {
			// Transient failure: advance to the next URL template
			metrics.FetchAttempts.WithLabelValues("error").Inc()
			f.log.Debug().Err(err).Str("url", candidate).Msg("Fetch attempt failed")
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		if !f.isListingURL(res.FinalURL) {
			// Redirected away from the search page, usually to the home page
			metrics.FetchAttempts.WithLabelValues("redirected").Inc()
			f.log.Debug().
				Str("requested", candidate).
				Str("final", res.FinalURL).
				Msg("Rejected redirect away from listing page")
			continue
		}

		metrics.FetchAttempts.WithLabelValues("ok").Inc()
		return res, nil
	}

	return nil, nil
}

// warmSession issues one GET against the site root before the first search,
// so the first listing request does not arrive cold.
func (f *Fetcher) warmSession(ctx context.Context) {
	if !f.warmup {
		return
	}
	f.warmOnce.Do(func() {
		if _, err := f.get(ctx, f.base.String()); err != nil {
			f.log.Debug().Err(err).Msg("Session warm-up failed")
		}
	})
}

// get issues a single GET with an explicit timeout and a random header
// profile, following redirects.
func (f *Fetcher) get(ctx context.Context, rawURL string) (*FetchResult, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	helpers.ApplyProfile(req, helpers.RandomProfile())

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == 430 {
		return nil, errRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s unexpected status code: %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	utf8Body, err := helpers.DecodeToUTF8(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	return &FetchResult{
		RequestedURL: rawURL,
		FinalURL:     resp.Request.URL.String(),
		Status:       resp.StatusCode,
		Body:         utf8Body,
	}, nil
}

// isListingURL reports whether a resolved URL still carries a search/listing
// marker. The site answers some throttled searches with a redirect to the
// home page and a 200.
func (f *Fetcher) isListingURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if strings.Contains(u.Path, "/busca") {
		return true
	}
	q := u.Query()
	return q.Get("query") != "" || q.Get("string") != ""
}
