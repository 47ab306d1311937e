package commands

import (
	"github.com/spf13/cobra"
	"statpulse/internal/di"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run the producer",
	Long: `Accepts raw analytics payloads on /ingest, aggregates them and pushes
snapshots with notifications to the sink configured in agent.sinkUrl.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := di.InitAgentApp(&flags)
		return err
	},
}

func init() {
	rootCmd.AddCommand(agentCmd)
}
