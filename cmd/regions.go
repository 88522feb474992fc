package cmd

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var regionsCmd = &cobra.Command{
	Use:   "regions",
	Short: "List the regions published on the source",
	RunE: func(cmd *cobra.Command, args []string) error {
		src, release, err := newScraper()
		if err != nil {
			return err
		}
		defer release()

		regions, err := src.ListRegions(cmd.Context())
		if err != nil {
			return err
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Région", "URL"})
		for _, r := range regions {
			t.AppendRow(table.Row{r.ID, r.Name, src.RegionURL(r.ID)})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(regionsCmd)
}
