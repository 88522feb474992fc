// Package observability holds the run metrics of the pipeline.
package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/rotisserie/eris"
)

const namespace = "plage_watch"

// Metrics holds the Prometheus counters and gauges for one pipeline run.
type Metrics struct {
	Registry *prometheus.Registry

	RegionsScraped prometheus.Counter
	RegionsSkipped prometheus.Counter
	RowsMalformed  prometheus.Counter
	Upserts        prometheus.Counter
	Pending        prometheus.Gauge

	Lookups *prometheus.CounterVec // labels: kind={link,image}, outcome={found,miss}

	RunDuration prometheus.Gauge
	LastSuccess prometheus.Gauge
}

// NewMetrics creates the metrics on their own registry. The registry is what
// gets pushed or served, so runs never collide with the default registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		RegionsScraped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "regions_scraped_total",
			Help:      "Regions whose table was fetched and parsed.",
		}),
		RegionsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "regions_skipped_total",
			Help:      "Regions skipped after a fetch or parse failure.",
		}),
		RowsMalformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_malformed_total",
			Help:      "Table rows dropped because they had no beach name.",
		}),
		Upserts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_upserted_total",
			Help:      "Beach records inserted or refreshed.",
		}),
		Pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_pending_enrichment",
			Help:      "Records missing a link or an image at the start of enrichment.",
		}),
		Lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lookups_total",
			Help:      "External lookups by kind and outcome.",
		}, []string{"kind", "outcome"}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of the last pipeline run.",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that completed without error.",
		}),
	}

	m.Registry.MustRegister(
		m.RegionsScraped,
		m.RegionsSkipped,
		m.RowsMalformed,
		m.Upserts,
		m.Pending,
		m.Lookups,
		m.RunDuration,
		m.LastSuccess,
	)
	return m
}

// ObserveLookup counts one lookup of kind ("link" or "image").
func (m *Metrics) ObserveLookup(kind string, found bool) {
	outcome := "miss"
	if found {
		outcome = "found"
	}
	m.Lookups.WithLabelValues(kind, outcome).Inc()
}

// Push sends the registry to a Pushgateway under job.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(m.Registry).PushContext(ctx); err != nil {
		return eris.Wrapf(err, "observability: push to %s", url)
	}
	return nil
}
