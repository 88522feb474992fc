package scraper

import (
	"context"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
	"github.com/rotisserie/eris"

	"mspro-labs/plage-watch/internal/models"
)

// BrowserFetcher renders pages in a headless Chromium, for when the source
// starts answering plain clients with a bot wall.
type BrowserFetcher struct {
	browser *rod.Browser
	timeout time.Duration
}

// browserLauncher starts a browser process and can kill it.
type browserLauncher interface {
	Launch() (string, error)
	Kill()
}

// NewBrowserFetcher launches a headless browser. Call Close when done.
func NewBrowserFetcher(timeout time.Duration) (*BrowserFetcher, error) {
	l := launcher.New().Headless(true).NoSandbox(true)
	return startBrowser(l, connectBrowser, timeout)
}

// startBrowser kills the launched process when the connection fails.
func startBrowser(l browserLauncher, connect func(controlURL string) (*rod.Browser, error), timeout time.Duration) (*BrowserFetcher, error) {
	u, err := l.Launch()
	if err != nil {
		return nil, eris.Wrap(err, "scraper: launch browser")
	}
	browser, err := connect(u)
	if err != nil {
		l.Kill()
		return nil, eris.Wrap(err, "scraper: connect to browser")
	}
	return &BrowserFetcher{browser: browser, timeout: timeout}, nil
}

func connectBrowser(controlURL string) (*rod.Browser, error) {
	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, err
	}
	return browser, nil
}

// Fetch navigates to url in a stealth page and returns the rendered HTML.
func (b *BrowserFetcher) Fetch(ctx context.Context, url string) (string, error) {
	page, err := stealth.Page(b.browser)
	if err != nil {
		return "", eris.Wrapf(models.ErrFetch, "open page for %s: %v", url, err)
	}
	defer page.Close()

	var html string
	err = rod.Try(func() {
		p := page.Context(ctx).Timeout(b.timeout)
		p.MustNavigate(url)
		p.MustWaitStable()
		html = p.MustHTML()
	})
	if err != nil {
		return "", eris.Wrapf(models.ErrFetch, "render %s: %v", url, err)
	}
	return html, nil
}

// Close shuts the browser down.
func (b *BrowserFetcher) Close() error {
	return b.browser.Close()
}
