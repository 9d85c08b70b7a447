// Package cmd - serve command
package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"uncertainty-budget/api"
	"uncertainty-budget/internal/config"
	"uncertainty-budget/internal/logging"
)

var serveAddr string

// serveCmd runs the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API under /api/",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := config.Get().Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, store, err := openService(ctx)
		if err != nil {
			return err
		}
		defer store.Close()
		defer logging.Sync()

		w := writer(cmd.OutOrStdout())
		w.Success("ubudget API v%s on http://localhost%s/api (storage: %s)", version, addr, config.Get().Storage.Backend)

		logging.Info("serving", zap.String("addr", addr))
		return api.Run(ctx, addr, api.NewServer(version, svc, logging.Logger))
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address; defaults to the configured address")
}
