package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mspro-labs/plage-watch/internal/export"
	"mspro-labs/plage-watch/internal/observability"
	"mspro-labs/plage-watch/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape, enrich and export in one pass",
	Long: `Lists the regions, upserts every beach of the selected regions, looks up a link
and a photo for the beaches missing one, then writes the configured exports.
In dev mode only the first region is scraped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runPipeline(ctx context.Context) error {
	logger := zap.L().Named("run")

	store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	src, release, err := newScraper()
	if err != nil {
		return err
	}
	defer release()

	lk, err := newLookup(ctx)
	if err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	p := pipeline.New(src, src, store, lk,
		pipeline.WithRunMode(cfg.Mode),
		pipeline.WithMetrics(metrics))

	report, err := p.Run(ctx)
	if err != nil {
		logger.Error("run failed", zap.Error(err))
		return err
	}
	printReport(report)

	recs, err := store.All(ctx)
	if err != nil {
		return err
	}
	// Export failures are already logged and never fail the run.
	_ = export.All(ctx, recs, exportOptions())

	pushMetrics(metrics)
	return nil
}

func pushMetrics(m *observability.Metrics) {
	if cfg.Metrics.PushgatewayURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := m.Push(ctx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
		zap.L().Warn("could not push metrics", zap.Error(err))
	}
}
