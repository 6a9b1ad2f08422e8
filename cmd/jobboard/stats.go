package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobboard/internal/admin"
	"github.com/amishk599/jobboard/internal/config"
	"github.com/amishk599/jobboard/internal/model"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print dashboard counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, _ *config.Config, st model.Store, _ *slog.Logger) error {
			s, err := admin.ComputeStats(ctx, st)
			if err != nil {
				return err
			}
			fmt.Printf("Jobs:         %d (%d active)\n", s.TotalJobs, s.ActiveJobs)
			fmt.Printf("Applications: %d (%d pending)\n", s.TotalApplications, s.PendingApplications)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
