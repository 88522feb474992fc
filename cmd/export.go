package cmd

import (
	"github.com/spf13/cobra"

	"mspro-labs/plage-watch/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the stored beaches to JSON, XLSX and Google Sheets",
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

		opts := exportOptions()
		if v, _ := cmd.Flags().GetString("json"); v != "" {
			opts.JSONPath = v
		}
		if v, _ := cmd.Flags().GetString("xlsx"); v != "" {
			opts.XLSXPath = v
		}
		return export.All(ctx, recs, opts)
	},
}

func init() {
	exportCmd.Flags().String("json", "", "JSON output path (overrides export.json_path)")
	exportCmd.Flags().String("xlsx", "", "XLSX output path (overrides export.xlsx_path)")
	rootCmd.AddCommand(exportCmd)
}
