package cmd

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"mspro-labs/plage-watch/internal/config"
	"mspro-labs/plage-watch/internal/db"
	"mspro-labs/plage-watch/internal/enricher"
	"mspro-labs/plage-watch/internal/export"
	"mspro-labs/plage-watch/internal/lookup"
	"mspro-labs/plage-watch/internal/scraper"
)

func openStore(ctx context.Context) (db.Store, error) {
	switch cfg.Store.Driver {
	case config.DriverMongo:
		s, err := db.OpenMongo(ctx, cfg.Store.MongoURI, cfg.Store.MongoDatabase, cfg.Store.MongoCollection)
		if err != nil {
			return nil, eris.Wrap(err, "mongo store")
		}
		return s, nil
	default:
		s, err := db.OpenSQLite(cfg.Store.Path)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite store")
		}
		zap.L().Debug("store opened", zap.String("path", cfg.Store.Path))
		return s, nil
	}
}

// newScraper returns the scraper and a func releasing the fetcher.
func newScraper() (*scraper.Scraper, func(), error) {
	if cfg.Source.FetchMode == config.FetchBrowser {
		bf, err := scraper.NewBrowserFetcher(cfg.Source.Timeout)
		if err != nil {
			return nil, nil, err
		}
		return scraper.New(bf, cfg.Source.BaseURL), func() { _ = bf.Close() }, nil
	}
	hf := scraper.NewHTTPFetcher(cfg.Source.Timeout, cfg.Source.UserAgent)
	return scraper.New(hf, cfg.Source.BaseURL), func() {}, nil
}

// newLookup returns nil when no search engine is configured.
func newLookup(ctx context.Context) (enricher.Lookup, error) {
	if !cfg.Search.Enabled() {
		zap.L().Warn("SEARCH_ENGINE_ID is not set, enrichment is disabled")
		return nil, nil
	}
	provider, err := lookup.NewGoogleProvider(ctx, lookup.GoogleOptions{
		APIKey:   cfg.Search.APIKey,
		EngineID: cfg.Search.EngineID,
		Language: cfg.Search.Language,
		Country:  cfg.Search.Country,
		Safe:     cfg.Search.Safe,
	})
	if err != nil {
		return nil, err
	}
	return lookup.NewClient(provider,
		lookup.WithImageCandidates(cfg.Search.ImageCandidates),
		lookup.WithTimeout(cfg.Search.Timeout),
		lookup.WithReferer(cfg.Search.Referer),
	), nil
}

func exportOptions() export.Options {
	return export.Options{
		JSONPath:      cfg.Export.JSONPath,
		XLSXPath:      cfg.Export.XLSXPath,
		SheetName:     cfg.Export.SheetName,
		SpreadsheetID: cfg.Export.SpreadsheetID,
		Credentials:   cfg.Export.Credentials,
	}
}
