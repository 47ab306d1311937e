package commands

import (
	"github.com/spf13/cobra"
	"statpulse/internal/di"
)

var sinkCmd = &cobra.Command{
	Use:   "sink",
	Short: "Run the single consumer endpoint",
	Long: `Holds the session lease, the latest snapshot and the recent notifications,
and serves them on /api/status and /ws.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := di.InitSinkApp(&flags)
		return err
	},
}

func init() {
	rootCmd.AddCommand(sinkCmd)
}
