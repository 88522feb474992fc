package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mspro-labs/plage-watch/internal/config"
)

var (
	cfg     *config.Config
	envFlag string
)

var rootCmd = &cobra.Command{
	Use:   "plage-watch",
	Short: "Water quality of Québec beaches, with links and photos",
	Long: `Scrapes the Environnement-Plage listings region by region, keeps the beaches
in a local store, and looks up a web page and a photo for the ones that lack them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(config.GetAppConfig())
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		if envFlag != "" {
			mode, err := config.ParseRunMode(envFlag)
			if err != nil {
				return err
			}
			c.Env, c.Mode = envFlag, mode
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFlag, "env", "", "run mode: dev (first region only) or prod (overrides PLAGES_ENV)")
}

// Execute runs the CLI until completion or SIGINT/SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
