package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mspro-labs/plage-watch/internal/observability"
	"mspro-labs/plage-watch/internal/web"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		logger := zap.L().Named("serve")

		store, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		ui, err := web.NewServer(store, observability.NewMetrics())
		if err != nil {
			return err
		}

		server := &http.Server{
			Addr:         serveAddr,
			Handler:      ui.Handler(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()

		logger.Info("web UI started", zap.String("addr", "http://localhost"+serveAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	rootCmd.AddCommand(serveCmd)
}
