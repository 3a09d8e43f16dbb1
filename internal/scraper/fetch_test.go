package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"sjsage522/gpuwatcher/logger"
	watcherrors "sjsage522/gpuwatcher/pkg/errors"
	"sjsage522/gpuwatcher/services/cache"
)

const listingBody = `<html><body>
	<div class="productCard">
		<span class="nameCard">Placa de Vídeo RTX 4060</span>
		<span class="priceCard">R$ 2.099,00</span>
		<a href="/produto/123456/rtx-4060">ver</a>
	</div>
</body></html>`

func newTestFetcher(t *testing.T, baseURL string, cacheSvc cache.CacheService) *Fetcher {
	t.Helper()
	fetcher, err := NewFetcher(FetcherConfig{
		BaseURL:  baseURL,
		CacheKey: "test_rate_limited",
	}, cacheSvc, nil, logger.ForComponent("fetcher-test"))
	assert.NoError(t, err)
	return fetcher
}

func TestFetcherSearchURLOrder(t *testing.T) {
	fetcher := newTestFetcher(t, "https://www.kabum.com.br", nil)

	urls := fetcher.SearchURLs("RTX 4060")
	assert.Equal(t, []string{
		"https://www.kabum.com.br/busca/rtx-4060",
		"https://www.kabum.com.br/busca?query=RTX+4060",
		"https://www.kabum.com.br/hardware/placa-de-video-vga?string=RTX+4060",
	}, urls)
}

func TestFetcherAcceptsFirstListing(t *testing.T) {
	var sawHeaders atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "" && r.Header.Get("Accept-Language") != "" {
			sawHeaders.Store(true)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(listingBody))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, server.URL, nil)

	res, err := fetcher.Search(context.Background(), "RTX 4060")
	assert.NoError(t, err)
	assert.NotNil(t, res)
	assert.Equal(t, http.StatusOK, res.Status)
	assert.Contains(t, res.FinalURL, "/busca/rtx-4060")
	assert.Contains(t, string(res.Body), "RTX 4060")
	assert.True(t, sawHeaders.Load(), "browser-like headers must be set")
}

func TestFetcherFallsBackAfterHomeRedirect(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		switch {
		case r.URL.Path == "/":
			w.Write([]byte(`<html><body>home</body></html>`))
		case r.URL.Path == "/busca/rtx-4060":
			// Throttled answer: bounce to the home page with a 200
			http.Redirect(w, r, "/", http.StatusFound)
		default:
			w.Write([]byte(listingBody))
		}
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, server.URL, nil)

	res, err := fetcher.Search(context.Background(), "RTX 4060")
	assert.NoError(t, err)
	assert.NotNil(t, res)
	assert.Contains(t, res.FinalURL, "query=RTX+4060")
	assert.GreaterOrEqual(t, requests.Load(), int32(3), "redirect chain plus fallback")
}

func TestFetcherRateLimitSetsBlockKey(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	blockCache := cache.NewMemoryService()
	fetcher := newTestFetcher(t, server.URL, blockCache)

	_, err := fetcher.Search(context.Background(), "RTX 4060")
	assert.Error(t, err)

	var werr *watcherrors.WatchError
	assert.ErrorAs(t, err, &werr)
	assert.Equal(t, watcherrors.ErrorTypeRateLimit, werr.Type)

	_, cacheErr := blockCache.Get("test_rate_limited")
	assert.NoError(t, cacheErr, "block key must be recorded")

	// While blocked, no further request reaches the site
	before := requests.Load()
	_, err = fetcher.Search(context.Background(), "RTX 4060")
	assert.ErrorAs(t, err, &werr)
	assert.Equal(t, watcherrors.ErrorTypeRateLimit, werr.Type)
	assert.Equal(t, before, requests.Load())
}

func TestFetcherEmptyRound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Every candidate bounces home
		if r.URL.Path != "/" {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		w.Write([]byte(`<html><body>home</body></html>`))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, server.URL, nil)

	res, err := fetcher.Search(context.Background(), "RTX 4060")
	assert.NoError(t, err)
	assert.Nil(t, res, "a round with no usable listing is not an error")
}

func TestFetcherServerErrorsAdvanceTemplates(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(listingBody))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, server.URL, nil)

	res, err := fetcher.Search(context.Background(), "RTX 4060")
	assert.NoError(t, err)
	assert.NotNil(t, res)
	assert.Contains(t, res.FinalURL, "string=RTX+4060")
}

func TestFetcherCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingBody))
	}))
	defer server.Close()

	fetcher := newTestFetcher(t, server.URL, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fetcher.Search(ctx, "RTX 4060")
	assert.ErrorIs(t, err, context.Canceled)
}
