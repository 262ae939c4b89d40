package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/plantsim/config"
	"github.com/kilianp07/plantsim/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:          "plantsim",
	Short:        "Thermal zone and electrical bus co-simulation",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig reads the configuration file and applies its log level.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	return cfg, nil
}
