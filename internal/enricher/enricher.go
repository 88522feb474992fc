// Package enricher fills in the link and image of stored beaches that still
// lack them.
package enricher

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"mspro-labs/plage-watch/internal/db"
	"mspro-labs/plage-watch/internal/gate"
	"mspro-labs/plage-watch/internal/models"
	"mspro-labs/plage-watch/internal/observability"
)

// Lookup finds enrichment data. Failures are reported as not found.
type Lookup interface {
	FindLink(ctx context.Context, query string) (models.LinkResult, bool)
	FindImage(ctx context.Context, query string) (models.ImageResult, bool)
}

// Result counts what one enrichment pass did.
type Result struct {
	Pending int
	Links   int
	Images  int
	Misses  int
}

// Query is the search text for a record: name, water body and municipality,
// skipping empty parts.
func Query(rec models.BeachRecord) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{rec.Name, rec.WaterBody, rec.Municipality} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Run looks up every record the gate flags and writes each result as soon as
// it is found. Lookups are only made for the fields that are missing. A store
// write failure stops the pass; lookup misses never do. metrics may be nil.
func Run(ctx context.Context, store db.Store, lookup Lookup, metrics *observability.Metrics) (Result, error) {
	logger := zap.L().Named("enricher")

	targets, err := store.QueryMissingEnrichment(ctx)
	if err != nil {
		return Result{}, eris.Wrap(err, "enricher: query missing enrichment")
	}

	res := Result{Pending: len(targets)}
	if metrics != nil {
		metrics.Pending.Set(float64(len(targets)))
	}
	if len(targets) == 0 {
		logger.Info("all records are already enriched")
		return res, nil
	}
	logger.Info("records to enrich", zap.Int("count", len(targets)))

	for _, rec := range targets {
		if err := ctx.Err(); err != nil {
			return res, eris.Wrap(err, "enricher: interrupted")
		}

		query := Query(rec)
		for _, field := range gate.Missing(rec) {
			var value string
			var found bool
			switch field {
			case models.FieldLink:
				var link models.LinkResult
				link, found = lookup.FindLink(ctx, query)
				value = link.URL
			case models.FieldImage:
				var img models.ImageResult
				img, found = lookup.FindImage(ctx, query)
				value = img.URL
			}
			if metrics != nil {
				metrics.ObserveLookup(string(field), found)
			}

			if !found || gate.IsMissing(value) {
				res.Misses++
				logger.Debug("no result", zap.String("key", rec.Key), zap.String("field", string(field)))
				continue
			}

			if err := store.UpdateField(ctx, rec.Key, field, value); err != nil {
				return res, eris.Wrapf(err, "enricher: save %s of %q", field, rec.Key)
			}
			if field == models.FieldLink {
				res.Links++
			} else {
				res.Images++
			}
			logger.Debug("enriched", zap.String("key", rec.Key), zap.String("field", string(field)), zap.String("url", value))
		}
	}

	logger.Info("enrichment done",
		zap.Int("links", res.Links),
		zap.Int("images", res.Images),
		zap.Int("misses", res.Misses))
	return res, nil
}
