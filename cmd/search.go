package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"mspro-labs/plage-watch/internal/searcher"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Find stored beaches by name or municipality",
	Long: `Fuzzy, accent-insensitive search over the stored beaches.
Examples:
  plage-watch search barnabe
  plage-watch search "lac megantic"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		query := strings.Join(args, " ")
		results, err := searcher.Perform(ctx, store, query, searchLimit)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Printf("No beach matches %q.\n", query)
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"#", "Match", "Plage", "Municipalité", "Cote", "Lien"})
		for i, r := range results {
			t.AppendRow(table.Row{
				i + 1,
				fmt.Sprintf("%.0f%%", r.Score*100),
				r.Item.Name,
				r.Item.Municipality,
				r.Item.Rating,
				r.Item.Link,
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", searcher.DefaultLimit, "maximum number of results")
	rootCmd.AddCommand(searchCmd)
}
