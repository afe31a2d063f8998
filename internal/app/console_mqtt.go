package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/relabs-tech/weather_station/internal/mqtt"
)

// RunConsoleMQTT prints every station telemetry message published on topic
// until ctx is canceled.
func RunConsoleMQTT(ctx context.Context, broker, clientID, topic string, logger *slog.Logger, w io.Writer) error {
	client := mqtt.NewClient(mqtt.Options{Broker: broker, ClientID: clientID}, logger)
	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Disconnect()

	err := client.Subscribe(topic, func(payload []byte) {
		t, err := mqtt.DecodeTelemetry(payload)
		if err != nil {
			logger.Warn("console: bad telemetry", "topic", topic, "error", err)
			return
		}
		fmt.Fprintln(w, t.String())
	})
	if err != nil {
		return err
	}

	<-ctx.Done()
	logger.Info("console: shutting down")
	return ctx.Err()
}
