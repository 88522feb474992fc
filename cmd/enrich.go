package cmd

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"mspro-labs/plage-watch/internal/observability"
	"mspro-labs/plage-watch/internal/pipeline"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Look up links and photos for stored beaches missing them",
	Long:  `Finds beaches in the store that lack a link or a photo and searches for them. Fields already set are never looked up again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		lk, err := newLookup(ctx)
		if err != nil {
			return err
		}
		if lk == nil {
			return eris.New("enrich: SEARCH_ENGINE_ID and SEARCH_API_KEY are required")
		}

		metrics := observability.NewMetrics()
		report, err := pipeline.New(nil, nil, store, lk, pipeline.WithMetrics(metrics)).Enrich(ctx)
		if err != nil {
			return err
		}
		printReport(report)
		pushMetrics(metrics)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(enrichCmd)
}
