package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/wicart/storefront/config"
	"github.com/wicart/storefront/internal/logger"
	"github.com/wicart/storefront/internal/mq"
	"go.uber.org/zap"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Inspect domain events on the configured broker",
}

var eventsTailCmd = &cobra.Command{
	Use:   "tail [channel]",
	Short: "Log every event delivered on a channel",
	Long: fmt.Sprintf(`Subscribes to a channel and logs each event until interrupted.
Channels: %s, %s, %s`, mq.ChannelUserSignedUp, mq.ChannelProductCreated, mq.ChannelOrderPlaced),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		if cfg.MQ.Backend == "" {
			return errors.New("MQ_BACKEND is not set")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		events, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		defer events.Close()

		log := logger.Named("events").With(zap.String("channel", args[0]))
		log.Info("tailing")
		err = events.Subscribe(ctx, args[0], func(_ context.Context, msg mq.Message) error {
			log.Info("event",
				zap.String("id", msg.ID),
				zap.Any("attributes", msg.Attributes),
				zap.ByteString("data", msg.Data),
			)
			return nil
		})
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(eventsTailCmd)
}
