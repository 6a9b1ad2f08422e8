package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/amishk599/jobboard/internal/admin"
	"github.com/amishk599/jobboard/internal/catalog"
	"github.com/amishk599/jobboard/internal/httpapi"
	"github.com/amishk599/jobboard/internal/ratelimit"
	"github.com/amishk599/jobboard/internal/scheduler"
)

const housekeepingInterval = 5 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long:  "Start the public and admin HTTP API; blocks until SIGINT/SIGTERM.",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return err
	}

	logger.Info("config loaded",
		"addr", cfg.Server.Addr,
		"database", cfg.Database.Driver,
		"sessions", cfg.Session.Backend,
		"notification", cfg.Notification.Type,
		"daily_limit", cfg.Intake.DailyLimit,
		"enforce_capacity", cfg.Intake.EnforceCapacity,
	)

	lock, err := lockDatabase(cfg)
	if err != nil {
		logger.Error("failed to lock database", "error", err)
		return err
	}
	if lock != nil {
		defer lock.Unlock()
	}

	st, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess, err := setupSessions(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open session store", "error", err)
		return err
	}
	defer sess.close()

	in := setupIntake(cfg, st, setupNotifier(cfg, logger), logger)
	// Let in-flight notifications finish before the store closes.
	defer in.Wait()

	var limiter *ratelimit.ClientLimiter
	if cfg.Server.RequestsPerSec > 0 {
		limiter = ratelimit.NewClientLimiter(cfg.Server.RequestsPerSec, cfg.Server.Burst)
		logger.Info("request throttling enabled", "rps", cfg.Server.RequestsPerSec, "burst", cfg.Server.Burst)
	}

	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(httpapi.Deps{
		Store:          st,
		Catalog:        catalog.NewService(st),
		Intake:         in,
		Jobs:           admin.NewJobService(st, logger),
		Triage:         admin.NewTriageService(st, logger),
		Sessions:       sess.manager,
		Limiter:        limiter,
		Logger:         logger,
		CORSOrigins:    cfg.Server.CORSOrigins,
		MaxResumeBytes: cfg.Intake.MaxResumeBytes,
	})

	sched := scheduler.NewScheduler(housekeepingTasks(sess, limiter, logger), housekeepingInterval, logger)
	srv := httpapi.NewServer(cfg.Server.Addr, router,
		cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout, logger)

	// A failing listener cancels the housekeeping loop too.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sched.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx) })
	if err := g.Wait(); err != nil {
		logger.Error("server error", "error", err)
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("goodbye")
	return nil
}

// housekeepingTasks drops expired in-memory sessions and idle throttle buckets.
func housekeepingTasks(sess *sessions, limiter *ratelimit.ClientLimiter, logger *slog.Logger) []scheduler.Task {
	var tasks []scheduler.Task
	if sess.memory != nil {
		tasks = append(tasks, scheduler.Task{Name: "purge sessions", Run: func(ctx context.Context) error {
			if n := sess.memory.Purge(ctx); n > 0 {
				logger.Debug("purged expired sessions", "count", n)
			}
			return nil
		}})
	}
	if limiter != nil {
		tasks = append(tasks, scheduler.Task{Name: "evict idle clients", Run: func(context.Context) error {
			if n := limiter.Sweep(); n > 0 {
				logger.Debug("evicted idle clients", "count", n)
			}
			return nil
		}})
	}
	return tasks
}
