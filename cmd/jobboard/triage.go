package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobboard/internal/admin"
	"github.com/amishk599/jobboard/internal/config"
	"github.com/amishk599/jobboard/internal/filter"
	"github.com/amishk599/jobboard/internal/model"
	"github.com/amishk599/jobboard/internal/triage"
)

var triageCmd = &cobra.Command{
	Use:   "triage",
	Short: "Review applications interactively (TUI)",
	Long:  "Shows the job picker, then the split-pane view for changing application statuses.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, _ *config.Config, st model.Store, _ *slog.Logger) error {
			// Log output corrupts the alt-screen.
			return runTriage(ctx, st, silentLogger())
		})
	},
}

func init() {
	rootCmd.AddCommand(triageCmd)
}

func runTriage(ctx context.Context, st model.Store, logger *slog.Logger) error {
	svc := admin.NewTriageService(st, logger)

	for {
		jobs, err := admin.NewJobService(st, logger).List(ctx)
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			fmt.Println("No jobs posted yet.")
			return nil
		}

		jobID, ok, err := triage.RunJobPicker(jobs)
		if err != nil {
			return fmt.Errorf("picker: %w", err)
		}
		if !ok {
			return nil
		}

		label := "all jobs"
		for _, j := range jobs {
			if j.ID == jobID {
				label = j.Title
			}
		}

		apps, err := triage.RunLoader(label, func(ctx context.Context) ([]model.ApplicationView, error) {
			return svc.List(ctx, filter.ApplicationFilter{JobID: jobID})
		})
		if err != nil {
			fmt.Printf("Error loading applications: %v\n", err)
			continue
		}

		wantQuit, err := triage.RunTriageTUI(apps, svc)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return nil
		}
		// back to the picker
	}
}
