package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"inferd/internal/config"
	"inferd/internal/tracking"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "trackingd",
		Short:         "Validate configuration and exec the model-registry tracking server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg config.Config
			if configPath != "" {
				var err error
				cfg, err = config.Load(configPath)
				if err != nil {
					return fmt.Errorf("load config %s: %w", configPath, err)
				}
			}
			cfg = config.FromEnv(cfg)
			log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
				With().Timestamp().Logger()
			// Launch only returns on error; on success the tracking server
			// has replaced this process.
			return tracking.Launch(log, cfg)
		},
	}
	root.Flags().StringVar(&configPath, "config", "", "Optional config file (.yaml/.json/.toml); env overrides it")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "trackingd:", err)
		os.Exit(1)
	}
}
