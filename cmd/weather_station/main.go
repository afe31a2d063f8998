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

	"github.com/spf13/cobra"

	"github.com/relabs-tech/weather_station/internal/app"
	"github.com/relabs-tech/weather_station/internal/config"
	"github.com/relabs-tech/weather_station/internal/logging"
)

var version = "dev"
var appName = "weather-station"

const defaultConfigFile = "weather_station.conf"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:           "weather_station",
	Short:         "Sample the station sensors, show them on the display and store them",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		logger := logging.New(os.Stderr, cfg, version, appName)
		slog.SetDefault(logger)
		logger.Info("starting",
			"version", version,
			"env", cfg.AppEnv,
			"log_level", cfg.LogLevel.String(),
			"sensors", cfg.SensorDriver,
			"display", cfg.DisplayDriver,
			"sink", cfg.SinkDriver,
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := app.RunStation(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("run failed", "err", err)
			return err
		}
		logger.Info("shutting down")
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:          "check",
	Short:        "Load the configuration and check the sink is reachable",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return app.Check(cmd.Context(), cfg, cmd.OutOrStdout())
	},
}

// loadConfig reads --config when given. Without the flag the default file
// is used only if it exists.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := cfgFile
	if !cmd.Flags().Changed("config") {
		path = config.ExistingFile(defaultConfigFile)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", defaultConfigFile, "KEY=VALUE config file")
	rootCmd.AddCommand(checkCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
