// Package pipeline runs one pass over the source: list regions, fetch and
// normalize their tables, reconcile the store, then enrich what is missing.
package pipeline

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"mspro-labs/plage-watch/internal/config"
	"mspro-labs/plage-watch/internal/db"
	"mspro-labs/plage-watch/internal/enricher"
	"mspro-labs/plage-watch/internal/models"
	"mspro-labs/plage-watch/internal/normalize"
	"mspro-labs/plage-watch/internal/observability"
)

// RegionLister lists the regions of the source in page order.
type RegionLister interface {
	ListRegions(ctx context.Context) ([]models.Region, error)
}

// TableFetcher returns the raw rows of one region.
type TableFetcher interface {
	FetchTable(ctx context.Context, region models.Region) ([]models.RawRow, error)
}

// Report counts what a run did.
type Report struct {
	RegionsListed   int
	RegionsScraped  int
	RegionsSkipped  int
	RowsMalformed   int
	RecordsUpserted int64
	Pending         int
	LinksFound      int
	ImagesFound     int
	LookupMisses    int
}

type Pipeline struct {
	regions RegionLister
	tables  TableFetcher
	store   db.Store
	lookup  enricher.Lookup
	mode    config.RunMode
	metrics *observability.Metrics
	clock   clockwork.Clock
	logger  *zap.Logger
}

type Option func(*Pipeline)

// WithRunMode sets how many regions a run covers. The default is dev.
func WithRunMode(mode config.RunMode) Option {
	return func(p *Pipeline) { p.mode = mode }
}

// WithMetrics records run metrics into m.
func WithMetrics(m *observability.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// New wires a pipeline. lookup may be nil when only scraping.
func New(regions RegionLister, tables TableFetcher, store db.Store, lookup enricher.Lookup, opts ...Option) *Pipeline {
	p := &Pipeline{
		regions: regions,
		tables:  tables,
		store:   store,
		lookup:  lookup,
		mode:    config.Dev,
		clock:   clockwork.NewRealClock(),
		logger:  zap.L().Named("pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run scrapes then enriches. Only store failures and cancellation are
// returned; everything else is logged and counted in the report.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	start := p.clock.Now()
	p.logger.Info("run started", zap.String("mode", string(p.mode)))

	report, err := p.Scrape(ctx)
	if err != nil {
		return report, err
	}
	if err := p.enrich(ctx, &report); err != nil {
		return report, err
	}

	elapsed := p.clock.Since(start)
	if p.metrics != nil {
		p.metrics.RunDuration.Set(elapsed.Seconds())
		p.metrics.LastSuccess.Set(float64(p.clock.Now().Unix()))
	}
	p.logger.Info("run finished",
		zap.Duration("elapsed", elapsed),
		zap.Int("regions_scraped", report.RegionsScraped),
		zap.Int("regions_skipped", report.RegionsSkipped),
		zap.Int64("upserted", report.RecordsUpserted),
		zap.Int("links", report.LinksFound),
		zap.Int("images", report.ImagesFound),
		zap.Int("misses", report.LookupMisses))
	return report, nil
}

// Scrape fetches every selected region and upserts its records.
func (p *Pipeline) Scrape(ctx context.Context) (Report, error) {
	var report Report

	regions, err := p.regions.ListRegions(ctx)
	if err != nil {
		// An unreadable index means there is nothing to do this run.
		p.logger.Error("could not list regions", zap.Error(err))
		regions = nil
	}
	report.RegionsListed = len(regions)
	if p.mode != config.Prod && len(regions) > 1 {
		regions = regions[:1]
	}

	for _, region := range regions {
		if err := ctx.Err(); err != nil {
			return report, eris.Wrap(err, "pipeline: interrupted")
		}
		log := p.logger.With(zap.String("region_id", region.ID), zap.String("region", region.Name))

		rows, err := p.tables.FetchTable(ctx, region)
		if err != nil {
			if ctx.Err() != nil {
				return report, eris.Wrap(ctx.Err(), "pipeline: interrupted")
			}
			log.Warn("skipping region", zap.Error(err))
			report.RegionsSkipped++
			p.inc(func(m *observability.Metrics) { m.RegionsSkipped.Inc() })
			continue
		}
		report.RegionsScraped++
		p.inc(func(m *observability.Metrics) { m.RegionsScraped.Inc() })

		recs, errs := normalize.NormalizeAll(rows, region)
		for _, e := range errs {
			log.Warn("skipping row", zap.Error(e))
		}
		report.RowsMalformed += len(errs)
		p.inc(func(m *observability.Metrics) { m.RowsMalformed.Add(float64(len(errs))) })

		if len(recs) == 0 {
			log.Info("no beaches listed")
			continue
		}
		n, err := p.store.UpsertAll(ctx, recs)
		if err != nil {
			return report, eris.Wrapf(err, "pipeline: save region %s", region.ID)
		}
		report.RecordsUpserted += n
		p.inc(func(m *observability.Metrics) { m.Upserts.Add(float64(n)) })
		log.Info("region saved", zap.Int("rows", len(rows)), zap.Int64("upserted", n))
	}
	return report, nil
}

// Enrich runs only the enrichment stage.
func (p *Pipeline) Enrich(ctx context.Context) (Report, error) {
	var report Report
	err := p.enrich(ctx, &report)
	return report, err
}

func (p *Pipeline) enrich(ctx context.Context, report *Report) error {
	if p.lookup == nil {
		p.logger.Warn("no lookup configured, skipping enrichment")
		return nil
	}
	res, err := enricher.Run(ctx, p.store, p.lookup, p.metrics)
	report.Pending = res.Pending
	report.LinksFound = res.Links
	report.ImagesFound = res.Images
	report.LookupMisses = res.Misses
	return err
}

func (p *Pipeline) inc(f func(m *observability.Metrics)) {
	if p.metrics != nil {
		f(p.metrics)
	}
}
