// Package lookup finds a representative link and photo for a beach.
package lookup

import (
	"context"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"mspro-labs/plage-watch/internal/models"
)

// Pacing and probe limits.
const (
	baseDelay = 1 * time.Second
	maxJitter = 2 * time.Second

	minImageCandidates     = 3
	maxImageCandidates     = 10 // Custom Search rejects num > 10
	defaultImageCandidates = 5
	defaultTimeout         = 10 * time.Second
	probeTimeout           = 5 * time.Second
	defaultReferer         = "https://github.com/mspro-labs/plage-watch"
	defaultUserAgent       = "plage-watch/1.0 (+https://github.com/mspro-labs/plage-watch)"
)

// Client wraps a Provider with the pipeline's lookup policy: jittered
// pacing, per-call timeouts, image reachability probes and error absorption.
type Client struct {
	provider   Provider
	http       *resty.Client
	clock      clockwork.Clock
	limiter    *rate.Limiter
	delay      bool
	candidates int
	timeout    time.Duration
	referer    string
	logger     *zap.Logger
}

// Option configures the client.
type Option func(*Client)

// WithoutDelay disables pacing, for local or already validated paths.
func WithoutDelay() Option {
	return func(c *Client) {
		c.delay = false
	}
}

// WithClock overrides the clock used for pacing.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) {
		c.clock = clock
	}
}

// WithImageCandidates sets how many ranked images are probed, clamped to
// [3, 10].
func WithImageCandidates(n int) Option {
	return func(c *Client) {
		c.candidates = min(max(n, minImageCandidates), maxImageCandidates)
	}
}

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithReferer sets the Referer header sent with image probes.
func WithReferer(referer string) Option {
	return func(c *Client) {
		if referer != "" {
			c.referer = referer
		}
	}
}

// WithHTTPClient overrides the resty client used for probes.
func WithHTTPClient(hc *resty.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient creates a lookup client around provider.
func NewClient(provider Provider, opts ...Option) *Client {
	hc := resty.New().
		SetTimeout(probeTimeout).
		SetHeader("User-Agent", defaultUserAgent).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(5))

	c := &Client{
		provider:   provider,
		http:       hc,
		clock:      clockwork.NewRealClock(),
		limiter:    rate.NewLimiter(rate.Every(baseDelay), 1),
		delay:      true,
		candidates: defaultImageCandidates,
		timeout:    defaultTimeout,
		referer:    defaultReferer,
		logger:     zap.L().Named("lookup"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// FindLink returns the top web result for query. Any failure yields false.
func (c *Client) FindLink(ctx context.Context, query string) (models.LinkResult, bool) {
	if err := c.pace(ctx); err != nil {
		c.logger.Warn("link lookup cancelled", zap.String("query", query), zap.Error(err))
		return models.LinkResult{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	results, err := c.provider.SearchWeb(ctx, query, 1)
	if err != nil {
		c.logger.Warn("link lookup failed", zap.String("query", query), zap.Error(err))
		return models.LinkResult{}, false
	}
	if len(results) == 0 {
		c.logger.Info("no link found", zap.String("query", query))
		return models.LinkResult{}, false
	}
	return results[0], true
}

// FindImage returns the first ranked image candidate that answers a probe
// with a 2xx status. Any failure, or no reachable candidate, yields false.
func (c *Client) FindImage(ctx context.Context, query string) (models.ImageResult, bool) {
	if err := c.pace(ctx); err != nil {
		c.logger.Warn("image lookup cancelled", zap.String("query", query), zap.Error(err))
		return models.ImageResult{}, false
	}

	searchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	candidates, err := c.provider.SearchImages(searchCtx, query, c.candidates)
	cancel()
	if err != nil {
		c.logger.Warn("image lookup failed", zap.String("query", query), zap.Error(err))
		return models.ImageResult{}, false
	}

	if len(candidates) > c.candidates {
		candidates = candidates[:c.candidates]
	}
	for rank, u := range candidates {
		if err := c.probe(ctx, u); err != nil {
			c.logger.Debug("image candidate rejected",
				zap.String("query", query), zap.Int("rank", rank+1), zap.String("url", u), zap.Error(err))
			continue
		}
		return models.ImageResult{URL: u}, true
	}

	c.logger.Info("no reachable image found", zap.String("query", query), zap.Int("candidates", len(candidates)))
	return models.ImageResult{}, false
}

// pace sleeps for the jittered delay and then waits on the limiter.
func (c *Client) pace(ctx context.Context) error {
	if !c.delay {
		return nil
	}
	d := baseDelay + rand.N(maxJitter)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.clock.After(d):
	}
	return c.limiter.Wait(ctx)
}

// probe checks that an image URL answers with a 2xx. Hosts that refuse HEAD
// get a GET whose body is never read.
func (c *Client) probe(ctx context.Context, u string) error {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Referer", c.referer).
		Head(u)
	if err != nil {
		return eris.Wrapf(models.ErrUnreachableImage, "HEAD %s: %v", u, err)
	}
	if res.StatusCode() == http.StatusMethodNotAllowed || res.StatusCode() == http.StatusNotImplemented {
		res, err = c.http.R().
			SetContext(ctx).
			SetHeader("Referer", c.referer).
			SetDoNotParseResponse(true).
			Get(u)
		if err != nil {
			return eris.Wrapf(models.ErrUnreachableImage, "GET %s: %v", u, err)
		}
		if body := res.RawBody(); body != nil {
			body.Close()
		}
	}
	if !res.IsSuccess() {
		return eris.Wrapf(models.ErrUnreachableImage, "%s answered %d", u, res.StatusCode())
	}
	return nil
}
