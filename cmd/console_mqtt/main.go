package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/relabs-tech/weather_station/internal/app"
)

func main() {
	var broker, topic, clientID string

	cmd := &cobra.Command{
		Use:          "console_mqtt",
		Short:        "Print weather station telemetry from an MQTT broker",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := slog.New(tint.NewHandler(os.Stderr, nil))
			logger.Info("starting weather-station console (MQTT subscriber)", "broker", broker, "topic", topic)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err := app.RunConsoleMQTT(ctx, broker, clientID, topic, logger, cmd.OutOrStdout())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&broker, "broker", "tcp://localhost:1883", "MQTT broker URL")
	cmd.Flags().StringVar(&topic, "topic", "weather/station", "telemetry topic")
	cmd.Flags().StringVar(&clientID, "client-id", "weather-console-subscriber", "MQTT client ID")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
