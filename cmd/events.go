/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ShameelMohamed/FASHN8/config"
	"github.com/ShameelMohamed/FASHN8/internal/logging"
	"github.com/ShameelMohamed/FASHN8/internal/mq"
	"github.com/spf13/cobra"
)

// eventsCmd tails garment events from the configured broker.
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Log garment events as wardrobes change",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		log := logging.New(cfg.Log, os.Stdout)

		queue, err := mq.Open(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if queue == nil {
			return errors.New("MQ_BACKEND is not set")
		}
		defer queue.Close()

		log.Info(cmd.Context(), "subscribed", "channel", mq.GarmentChannel, "backend", cfg.MQBackend)
		err = queue.Subscribe(cmd.Context(), mq.GarmentChannel, func(ctx context.Context, msg mq.Message) error {
			event, err := mq.DecodeGarmentEvent(msg)
			if err != nil {
				log.Warn(ctx, "dropping garment event", "id", msg.ID, "error", err)
				return err
			}
			log.Info(ctx, "garment saved",
				"id", msg.ID,
				"user", event.Username,
				"category", event.Category,
				"label", event.Label,
				"color", event.Color,
				"image_url", event.ImageURL,
				"saved_at", event.SavedAt,
			)
			return nil
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("subscribe %s: %w", mq.GarmentChannel, err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
}
