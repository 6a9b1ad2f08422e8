package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobboard/internal/admin"
	"github.com/amishk599/jobboard/internal/config"
	"github.com/amishk599/jobboard/internal/export"
	"github.com/amishk599/jobboard/internal/filter"
	"github.com/amishk599/jobboard/internal/model"
)

var appFlags struct {
	status, jobID, out string
}

var applicationsCmd = &cobra.Command{
	Use:     "applications",
	Aliases: []string{"apps"},
	Short:   "Review submitted applications",
}

var applicationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List applications, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, _ *config.Config, st model.Store, logger *slog.Logger) error {
			views, err := listApplications(ctx, st, logger)
			if err != nil {
				return err
			}
			printApplications(views)
			return nil
		})
	},
}

var applicationsStatusCmd = &cobra.Command{
	Use:   "status <application-id> <status>",
	Short: "Change an application's status",
	Long:  "Statuses: pending, reviewed, shortlisted, rejected, hired.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, _ *config.Config, st model.Store, logger *slog.Logger) error {
			app, err := admin.NewTriageService(st, logger).SetStatus(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("application %s is now %s\n", app.ID, app.Status)
			return nil
		})
	},
}

var applicationsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write applications to an XLSX workbook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, _ *config.Config, st model.Store, logger *slog.Logger) error {
			views, err := listApplications(ctx, st, logger)
			if err != nil {
				return err
			}
			out := appFlags.out
			if out == "" {
				out = fmt.Sprintf("applications-%s.xlsx", time.Now().UTC().Format("20060102"))
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := export.WriteXLSX(f, views); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Printf("wrote %d applications to %s\n", len(views), out)
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{applicationsListCmd, applicationsExportCmd} {
		c.Flags().StringVar(&appFlags.status, "status", "all", "filter by status")
		c.Flags().StringVar(&appFlags.jobID, "job", "all", "filter by job id")
	}
	applicationsExportCmd.Flags().StringVarP(&appFlags.out, "out", "o", "", "output file (default applications-YYYYMMDD.xlsx)")
	applicationsCmd.AddCommand(applicationsListCmd, applicationsStatusCmd, applicationsExportCmd)
	rootCmd.AddCommand(applicationsCmd)
}

func listApplications(ctx context.Context, st model.Store, logger *slog.Logger) ([]model.ApplicationView, error) {
	f, err := filter.NewApplicationFilter(appFlags.status, appFlags.jobID)
	if err != nil {
		return nil, err
	}
	return admin.NewTriageService(st, logger).List(ctx, f)
}

func printApplications(views []model.ApplicationView) {
	fmt.Printf("%-36s %-22s %-28s %-26s %-12s %s\n", "ID", "Applicant", "Email", "Job", "Status", "Applied")
	fmt.Println(strings.Repeat("─", 145))
	for _, v := range views {
		fmt.Printf("%-36s %-22s %-28s %-26s %-12s %s\n",
			v.ID, truncate(v.FullName, 22), truncate(v.Email, 28), truncate(v.JobTitle, 26),
			v.Status, v.SubmittedAt.Local().Format(time.DateTime))
	}
	fmt.Printf("\nTotal: %d applications\n", len(views))
}
