package helpers

import (
	"bytes"
	"context"
	"io"
	mathrand "math/rand"
	"net/http"
	"time"

	"golang.org/x/net/html/charset"
)

// HeaderProfile groups the browser-like headers that are rotated per attempt.
// Rotating the whole profile instead of single headers keeps the combinations
// internally consistent.
type HeaderProfile struct {
	UserAgent      string
	Accept         string
	AcceptLanguage string
	Referer        string
}

var headerProfiles = []HeaderProfile{
	{
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		Accept:         "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		AcceptLanguage: "pt-BR,pt;q=0.9,en-US;q=0.8,en;q=0.7",
		Referer:        "https://www.google.com/",
	},
	{
		UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
		Accept:         "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
		AcceptLanguage: "pt-BR,pt;q=0.9,en;q=0.6",
		Referer:        "https://www.google.com.br/",
	},
	{
		UserAgent:      "Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
		Accept:         "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		AcceptLanguage: "pt-BR,pt;q=0.8,en-US;q=0.5,en;q=0.3",
		Referer:        "https://www.bing.com/",
	},
}

// RandomProfile returns a pseudo-randomly chosen header profile. Uses the
// top-level rand source, which is safe for concurrent fetch workers.
func RandomProfile() HeaderProfile {
	return headerProfiles[mathrand.Intn(len(headerProfiles))]
}

// ApplyProfile sets browser-like headers on a request
func ApplyProfile(req *http.Request, p HeaderProfile) {
	req.Header.Set("User-Agent", p.UserAgent)
	req.Header.Set("Accept", p.Accept)
	req.Header.Set("Accept-Language", p.AcceptLanguage)
	req.Header.Set("Referer", p.Referer)
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	req.Header.Set("Sec-Fetch-User", "?1")
}

// DecodeToUTF8 converts a response body to UTF-8 based on the Content-Type
// header and the body content itself.
func DecodeToUTF8(body []byte, contentType string) ([]byte, error) {
	encoding, name, _ := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || name == "UTF-8" {
		return body, nil
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(body))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SleepJitter blocks for a random duration up to max, returning early when the
// context is cancelled.
func SleepJitter(ctx context.Context, max time.Duration) error {
	if max <= 0 {
		return ctx.Err()
	}
	d := time.Duration(mathrand.Int63n(int64(max)))
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
