package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobboard/internal/admin"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify config and backends, then exit",
	Long:  "One-shot check: loads the config, opens the database and session store, prints counts, exits. Does not serve.",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}
	logger.Info("config ok",
		"database", cfg.Database.Driver,
		"sessions", cfg.Session.Backend,
		"notification", cfg.Notification.Type,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	st, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("database check failed", "error", err)
		return err
	}
	defer st.Close()

	stats, err := admin.ComputeStats(ctx, st)
	if err != nil {
		logger.Error("database check failed", "error", err)
		return err
	}
	logger.Info("database ok",
		"jobs", stats.TotalJobs,
		"active_jobs", stats.ActiveJobs,
		"applications", stats.TotalApplications,
	)

	sess, err := setupSessions(ctx, cfg, logger)
	if err != nil {
		logger.Error("session store check failed", "error", err)
		return err
	}
	sess.close()
	logger.Info("session store ok", "backend", cfg.Session.Backend)

	logger.Info("check complete")
	return nil
}
