package cmd

import (
	"github.com/spf13/cobra"

	"mspro-labs/plage-watch/internal/observability"
	"mspro-labs/plage-watch/internal/pipeline"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Fetch the listings and update the store, without enrichment",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

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

		metrics := observability.NewMetrics()
		p := pipeline.New(src, src, store, nil,
			pipeline.WithRunMode(cfg.Mode),
			pipeline.WithMetrics(metrics))
		report, err := p.Scrape(ctx)
		if err != nil {
			return err
		}
		printReport(report)
		pushMetrics(metrics)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
}
