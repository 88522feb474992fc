package lookup

import (
	"context"

	"github.com/rotisserie/eris"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"

	"mspro-labs/plage-watch/internal/models"
)

// Provider is the raw search backend. It returns results in provider rank
// order and reports every failure as an error; Client turns those into misses.
type Provider interface {
	SearchWeb(ctx context.Context, query string, n int) ([]models.LinkResult, error)
	SearchImages(ctx context.Context, query string, n int) ([]string, error)
}

// GoogleProvider queries a Google Programmable Search engine.
type GoogleProvider struct {
	svc      *customsearch.Service
	engineID string
	language string
	country  string
	safe     string
}

// GoogleOptions fixes the locale and safety profile of every query.
type GoogleOptions struct {
	APIKey   string
	EngineID string
	Language string // e.g. "lang_fr"
	Country  string // e.g. "countryCA"
	Safe     string // "active" or "off"
}

// NewGoogleProvider builds the Custom Search service. Extra client options
// are mostly for tests (endpoint, HTTP client).
func NewGoogleProvider(ctx context.Context, o GoogleOptions, opts ...option.ClientOption) (*GoogleProvider, error) {
	if o.EngineID == "" {
		return nil, eris.New("lookup: search engine id is required")
	}
	clientOpts := append([]option.ClientOption{option.WithAPIKey(o.APIKey)}, opts...)
	svc, err := customsearch.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, eris.Wrap(err, "lookup: create custom search service")
	}
	if o.Safe == "" {
		o.Safe = "active"
	}
	return &GoogleProvider{
		svc:      svc,
		engineID: o.EngineID,
		language: o.Language,
		country:  o.Country,
		safe:     o.Safe,
	}, nil
}

func (p *GoogleProvider) list(query string, n int) *customsearch.CseListCall {
	call := p.svc.Cse.List().Cx(p.engineID).Q(query).Num(int64(n)).Safe(p.safe)
	if p.language != "" {
		call = call.Lr(p.language)
	}
	if p.country != "" {
		call = call.Gl(p.country)
	}
	return call
}

// SearchWeb returns up to n web results.
func (p *GoogleProvider) SearchWeb(ctx context.Context, query string, n int) ([]models.LinkResult, error) {
	res, err := p.list(query, n).Context(ctx).Do()
	if err != nil {
		return nil, eris.Wrapf(models.ErrLookup, "web search %q: %v", query, err)
	}
	out := make([]models.LinkResult, 0, len(res.Items))
	for _, item := range res.Items {
		if item == nil || item.Link == "" {
			continue
		}
		out = append(out, models.LinkResult{URL: item.Link, Title: item.Title, Snippet: item.Snippet})
	}
	return out, nil
}

// SearchImages returns up to n image URLs.
func (p *GoogleProvider) SearchImages(ctx context.Context, query string, n int) ([]string, error) {
	res, err := p.list(query, n).SearchType("image").Context(ctx).Do()
	if err != nil {
		return nil, eris.Wrapf(models.ErrLookup, "image search %q: %v", query, err)
	}
	out := make([]string, 0, len(res.Items))
	for _, item := range res.Items {
		if item == nil || item.Link == "" {
			continue
		}
		out = append(out, item.Link)
	}
	return out, nil
}
