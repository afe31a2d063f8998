// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/relabs-tech/weather_station/internal/app"
	"github.com/relabs-tech/weather_station/internal/config"
	"github.com/relabs-tech/weather_station/internal/logging"
)

func main() {
	var (
		cfgFile  string
		interval time.Duration
		mock     bool
	)

	cmd := &cobra.Command{
		Use:          "console",
		Short:        "Print raw sensor values to check the station wiring",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(config.ExistingFile(cfgFile))
			if err != nil {
				return fmt.Errorf("config error: %w", err)
			}
			if mock {
				cfg.SensorDriver = "mock"
			}
			logger := logging.New(os.Stderr, cfg, "dev", "weather-console")
			slog.SetDefault(logger)
			logger.Info("starting sensor console", "sensors", cfg.SensorDriver, "interval", interval)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err = app.RunSensorConsole(ctx, cfg, interval, logger, cmd.OutOrStdout())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&cfgFile, "config", "weather_station.conf", "KEY=VALUE config file")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "time between readings")
	cmd.Flags().BoolVar(&mock, "mock", false, "use generated sensor values")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
