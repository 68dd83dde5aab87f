/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/wicart/storefront/config"
	"github.com/wicart/storefront/internal/logger"
	"github.com/wicart/storefront/internal/server"
	"go.uber.org/zap"
)

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Starts the storefront API server",
	Long: `Starts the storefront API server. Usage:

	storefront server
`,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.Named("cmd")
		cfg := config.LoadConfig()
		if err := cfg.Validate(); err != nil {
			log.Error("invalid configuration", zap.Error(err))
			_ = logger.Sync()
			os.Exit(1)
		}

		srv, err := server.New(cmd.Context(), cfg)
		if err != nil {
			log.Error("failed to start server", zap.Error(err))
			_ = logger.Sync()
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go func() {
			<-ctx.Done()
			log.Info("shutting down")
			if err := srv.Shutdown(); err != nil {
				log.Warn("shutdown incomplete", zap.Error(err))
			}
		}()

		log.Info("listening", zap.String("addr", srv.Addr()))
		if err := srv.Start(); err != nil {
			log.Error("server error", zap.Error(err))
			_ = logger.Sync()
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
