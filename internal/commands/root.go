package commands

import (
	"github.com/spf13/cobra"
	"statpulse/internal/structures"
)

const defaultConfigPath = "config.yml"

var (
	flags = structures.CliFlags{}

	rootCmd = &cobra.Command{
		Use:   "statpulse",
		Short: "Live channel analytics aggregator",
		Long: `statpulse aggregates live analytics payloads and delivers snapshots
and change notifications to a single desktop consumer.

Examples:
  statpulse sink --config config.yml        # Run the consumer endpoint
  statpulse agent --config config.yml       # Run the producer next to the browser
  statpulse status --sink http://host:6767  # Print what the sink currently holds`,
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&flags.ConfigPath, "config", "c", defaultConfigPath,
		"Path to the YAML config file")
	rootCmd.PersistentFlags().BoolVar(&flags.DebugMode, "debug", false,
		"Enable debug logging to the console")
	rootCmd.PersistentFlags().IntVarP(&flags.Port, "port", "p", 0,
		"Override webServer.port")
}

func Execute() error {
	return rootCmd.Execute()
}
