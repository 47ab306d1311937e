package commands

import (
	"context"
	"fmt"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"io"
	"statpulse/internal/models"
	"statpulse/internal/session"
	"time"
)

var (
	statusSinkURL string
	statusTop     int
	statusTimeout time.Duration
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print what the sink currently holds",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusSinkURL, "sink", "http://localhost:6767",
		"Base URL of the sink")
	statusCmd.Flags().IntVar(&statusTop, "top", 5,
		"Number of entities to list")
	statusCmd.Flags().DurationVar(&statusTimeout, "timeout", 5*time.Second,
		"Request timeout")
}

func runStatus(cmd *cobra.Command, args []string) error {
	client, err := session.NewClient(statusSinkURL, statusTimeout)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), statusTimeout)
	defer cancel()

	status, err := client.Status(ctx)
	if err != nil {
		return fmt.Errorf("fetch status from %s: %w", statusSinkURL, err)
	}
	renderStatus(cmd.OutOrStdout(), status, time.Now(), statusTop)
	return nil
}

func ago(ms int64, now time.Time) string {
	return humanize.RelTime(time.UnixMilli(ms), now, "ago", "from now")
}

func renderStatus(w io.Writer, status models.SinkStatus, now time.Time, top int) {
	if status.Connected {
		fmt.Fprintf(w, "Session:      %s (heartbeat %s)\n", status.SessionID, ago(status.LastHeartbeat, now))
	} else {
		fmt.Fprintln(w, "Session:      disconnected")
	}

	data := status.Data
	if data == nil {
		fmt.Fprintln(w, "Snapshot:     none received")
	} else {
		fmt.Fprintf(w, "Snapshot:     received %s\n", ago(data.ReceivedAt, now))
		if data.SubscriberCount != nil {
			hot := ""
			if data.SubscriberHot {
				hot = " (hot)"
			}
			fmt.Fprintf(w, "Subscribers:  %s%s\n", humanize.Comma(*data.SubscriberCount), hot)
		}
		watch := (time.Duration(data.TotalWatchTimeMs) * time.Millisecond).Round(time.Minute)
		fmt.Fprintf(w, "Watch time:   %s\n", watch)
		fmt.Fprintf(w, "Likes:        %s\n", humanize.Comma(data.TotalLikes))
		fmt.Fprintf(w, "Comments:     %s\n", humanize.Comma(data.TotalComments))
		fmt.Fprintf(w, "Revenue:      $%s\n", humanize.CommafWithDigits(data.TotalRevenue, 2))

		entities := data.Entities
		if top >= 0 && len(entities) > top {
			entities = entities[:top]
		}
		if len(entities) > 0 {
			fmt.Fprintln(w, "Top entities (48h views):")
		}
		for i, e := range entities {
			fmt.Fprintf(w, "  %d. %-40s %10s  60m %s\n", i+1, models.TruncateTitle(e.Title, 37),
				humanize.Comma(e.Views48h), humanize.Comma(e.Views60m))
		}
	}

	fmt.Fprintf(w, "Notifications: %d\n", len(status.Notifications))
	for _, n := range status.Notifications {
		fmt.Fprintf(w, "  %s\n", n.Message())
	}
}
