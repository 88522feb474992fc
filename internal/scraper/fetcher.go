package scraper

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"
	"golang.org/x/net/html/charset"

	"mspro-labs/plage-watch/internal/models"
)

// PageFetcher returns the UTF-8 HTML of a page.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// HTTPFetcher fetches pages with a plain HTTP client. The source site serves
// ISO-8859-1, so bodies are decoded from the declared or sniffed charset.
type HTTPFetcher struct {
	client *resty.Client
}

// NewHTTPFetcher creates a fetcher with the given timeout and user agent.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("User-Agent", userAgent).
		SetHeader("Accept-Language", "fr-CA,fr;q=0.9")
	return &HTTPFetcher{client: client}
}

// Fetch downloads url and returns its body as UTF-8.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	res, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", eris.Wrapf(models.ErrFetch, "GET %s: %v", url, err)
	}
	if !res.IsSuccess() {
		return "", eris.Wrapf(models.ErrFetch, "GET %s: status %d", url, res.StatusCode())
	}

	r, err := charset.NewReader(bytes.NewReader(res.Body()), res.Header().Get("Content-Type"))
	if err != nil {
		return "", eris.Wrapf(models.ErrFetch, "decode %s: %v", url, err)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return "", eris.Wrapf(models.ErrFetch, "read %s: %v", url, err)
	}
	return string(body), nil
}
