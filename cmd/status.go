package cmd

import (
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"mspro-labs/plage-watch/internal/gate"
	"mspro-labs/plage-watch/internal/models"
	"mspro-labs/plage-watch/internal/pipeline"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored beaches and their enrichment state",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		recs, err := store.All(ctx)
		if err != nil {
			return err
		}
		onlyMissing, _ := cmd.Flags().GetBool("missing")
		renderStatus(os.Stdout, recs, onlyMissing)
		return nil
	},
}

func init() {
	statusCmd.Flags().Bool("missing", false, "only list beaches still missing a link or a photo")
	rootCmd.AddCommand(statusCmd)
}

func check(v string) string {
	if gate.IsMissing(v) {
		return "-"
	}
	return "✓"
}

func renderStatus(w io.Writer, recs []models.BeachRecord, onlyMissing bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Key", "Plage", "Municipalité", "Région", "Cote", "Lien", "Photo"})

	var pending int
	for _, r := range recs {
		missing := gate.NeedsEnrichment(r)
		if missing {
			pending++
		}
		if onlyMissing && !missing {
			continue
		}
		t.AppendRow(table.Row{r.Key, r.Name, r.Municipality, r.RegionName, r.Rating, check(r.Link), check(r.Image)})
	}
	t.AppendFooter(table.Row{"", "", "", "", "Total", len(recs), pending})
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func printReport(r pipeline.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Step", "Count"})
	t.AppendRows([]table.Row{
		{"regions listed", r.RegionsListed},
		{"regions scraped", r.RegionsScraped},
		{"regions skipped", r.RegionsSkipped},
		{"rows malformed", r.RowsMalformed},
		{"records upserted", r.RecordsUpserted},
		{"pending enrichment", r.Pending},
		{"links found", r.LinksFound},
		{"images found", r.ImagesFound},
		{"lookup misses", r.LookupMisses},
	})
	t.SetStyle(table.StyleRounded)
	t.Render()
}
