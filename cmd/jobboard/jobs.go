package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobboard/internal/admin"
	"github.com/amishk599/jobboard/internal/config"
	"github.com/amishk599/jobboard/internal/model"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage job postings",
}

var jobsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every job, active or not",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, _ *config.Config, st model.Store, logger *slog.Logger) error {
			jobs, err := admin.NewJobService(st, logger).List(ctx)
			if err != nil {
				return err
			}
			printJobs(jobs)
			return nil
		})
	},
}

var jobFlags struct {
	title, department, location, description string
	maxApplications                          int
}

var jobsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Post a new job",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, _ *config.Config, st model.Store, logger *slog.Logger) error {
			job, err := admin.NewJobService(st, logger).Create(ctx, model.JobFields{
				Title:           jobFlags.title,
				Department:      jobFlags.department,
				Location:        jobFlags.location,
				Description:     jobFlags.description,
				MaxApplications: jobFlags.maxApplications,
			})
			if err != nil {
				return err
			}
			fmt.Printf("created job %s (%s)\n", job.ID, job.Title)
			return nil
		})
	},
}

var jobsUpdateCmd = &cobra.Command{
	Use:   "update <job-id>",
	Short: "Edit a job; unset flags keep their current value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, _ *config.Config, st model.Store, logger *slog.Logger) error {
			svc := admin.NewJobService(st, logger)
			cur, err := svc.Get(ctx, args[0])
			if err != nil {
				return err
			}
			fields := model.JobFields{
				Title:           cur.Title,
				Department:      cur.Department,
				Location:        cur.Location,
				Description:     cur.Description,
				MaxApplications: cur.MaxApplications,
			}
			flags := cmd.Flags()
			if flags.Changed("title") {
				fields.Title = jobFlags.title
			}
			if flags.Changed("department") {
				fields.Department = jobFlags.department
			}
			if flags.Changed("location") {
				fields.Location = jobFlags.location
			}
			if flags.Changed("description") {
				fields.Description = jobFlags.description
			}
			if flags.Changed("max") {
				fields.MaxApplications = jobFlags.maxApplications
			}
			job, err := svc.Update(ctx, cur.ID, fields)
			if err != nil {
				return err
			}
			fmt.Printf("updated job %s (%s)\n", job.ID, job.Title)
			return nil
		})
	},
}

var jobsToggleCmd = &cobra.Command{
	Use:   "toggle <job-id>",
	Short: "Open or close a job for applications",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(func(ctx context.Context, _ *config.Config, st model.Store, logger *slog.Logger) error {
			job, err := admin.NewJobService(st, logger).Toggle(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("job %s is now %s\n", job.ID, activeLabel(job.Active))
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{jobsCreateCmd, jobsUpdateCmd} {
		f := c.Flags()
		f.StringVar(&jobFlags.title, "title", "", "job title")
		f.StringVar(&jobFlags.department, "department", "", "department")
		f.StringVar(&jobFlags.location, "location", "", "location")
		f.StringVar(&jobFlags.description, "description", "", "description")
		f.IntVar(&jobFlags.maxApplications, "max", 0, "maximum applications (default 5)")
	}
	jobsCmd.AddCommand(jobsListCmd, jobsCreateCmd, jobsUpdateCmd, jobsToggleCmd)
	rootCmd.AddCommand(jobsCmd)
}

func activeLabel(active bool) string {
	if active {
		return "active"
	}
	return "closed"
}

func printJobs(jobs []model.Job) {
	fmt.Printf("%-36s %-30s %-15s %-18s %-7s %s\n", "ID", "Title", "Department", "Location", "Status", "Apps")
	fmt.Println(strings.Repeat("─", 118))
	active := 0
	for _, j := range jobs {
		if j.Active {
			active++
		}
		fmt.Printf("%-36s %-30s %-15s %-18s %-7s %d/%d\n",
			j.ID, truncate(j.Title, 30), truncate(j.Department, 15), truncate(j.Location, 18),
			activeLabel(j.Active), j.ApplicationCount, j.Capacity())
	}
	fmt.Printf("\nTotal: %d jobs (%d active, %d closed)\n", len(jobs), active, len(jobs)-active)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
