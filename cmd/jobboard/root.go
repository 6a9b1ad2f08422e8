package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/amishk599/jobboard/internal/config"
	"github.com/amishk599/jobboard/internal/eligibility"
	"github.com/amishk599/jobboard/internal/intake"
	"github.com/amishk599/jobboard/internal/model"
	"github.com/amishk599/jobboard/internal/notifier"
	"github.com/amishk599/jobboard/internal/retry"
	"github.com/amishk599/jobboard/internal/session"
	"github.com/amishk599/jobboard/internal/store"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobboard",
	Short: "Job board backend",
	Long:  "jobboard serves the public job listing, takes applications and runs the admin tools.",
	// `jobboard` with no subcommand runs the HTTP server.
	RunE:         runServe,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBBOARD_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBBOARD_CONFIG env var > "./config.yaml".
// A .env file in the working directory is loaded first so the YAML can
// reference its variables.
func loadConfig(path string) (*config.Config, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	if path == "" {
		if env := os.Getenv("JOBBOARD_CONFIG"); env != "" {
			path = env
		} else {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// silentLogger is used while a TUI owns the terminal.
func silentLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// openStore opens the configured persistence gateway.
func openStore(cfg *config.Config, logger *slog.Logger) (model.Store, error) {
	switch cfg.Database.Driver {
	case "postgres":
		s, err := store.NewPostgresStore(cfg.Database.DSN, store.PostgresOptions{
			MaxConns: cfg.Database.MaxOpenConns,
			MaxIdle:  cfg.Database.MaxIdleConns,
		})
		if err != nil {
			return nil, err
		}
		logger.Debug("using postgres store")
		return s, nil
	case "memory":
		logger.Warn("using in-memory store, data is lost on exit")
		return store.NewMemoryStore(), nil
	default:
		s, err := store.NewSQLiteStore(cfg.Database.Path)
		if err != nil {
			return nil, err
		}
		logger.Debug("using sqlite store", "path", cfg.Database.Path)
		return s, nil
	}
}

// lockDatabase takes an exclusive lock next to the SQLite file so two
// servers never share one database. Other drivers need no lock.
func lockDatabase(cfg *config.Config) (*flock.Flock, error) {
	if cfg.Database.Driver != "sqlite" {
		return nil, nil
	}
	fl := flock.New(cfg.Database.Path + ".lock")
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", fl.Path(), err)
	}
	if !locked {
		return nil, fmt.Errorf("another jobboard server is using %s", cfg.Database.Path)
	}
	return fl, nil
}

// setupNotifier returns nil when notifications are disabled.
func setupNotifier(cfg *config.Config, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		httpClient := &http.Client{Timeout: cfg.Notification.Timeout}
		slack := notifier.NewSlackNotifier(cfg.Notification.WebhookURL, httpClient, logger)
		return retry.NewRetryNotifier(slack, cfg.Notification.Retries, cfg.Notification.RetryBaseDelay, logger)
	case "none":
		return nil
	default:
		return notifier.NewLogNotifier(logger)
	}
}

// sessions is the admin session manager plus what the server needs to
// maintain its store.
type sessions struct {
	manager *session.Manager
	memory  *session.MemoryStore // nil when redis expires sessions itself
	close   func()
}

func setupSessions(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sessions, error) {
	out := &sessions{close: func() {}}
	var st session.Store
	switch cfg.Session.Backend {
	case "redis":
		client, err := session.DialRedis(ctx, cfg.Session.RedisAddr, cfg.Session.RedisPassword, cfg.Session.RedisDB)
		if err != nil {
			return nil, err
		}
		logger.Info("using redis session store", "addr", cfg.Session.RedisAddr)
		st = session.NewRedisStore(client, cfg.Session.KeyPrefix)
		out.close = func() { client.Close() }
	default:
		out.memory = session.NewMemoryStore()
		st = out.memory
	}
	creds := session.Credentials{Email: cfg.Admin.Email, Password: cfg.Admin.Password}
	out.manager = session.NewManager(creds, st, cfg.Admin.SessionTTL, logger)
	return out, nil
}

func setupIntake(cfg *config.Config, st model.Store, n model.Notifier, logger *slog.Logger) *intake.Service {
	return intake.NewService(st, n, intake.Options{
		Policy: eligibility.Policy{
			DailyLimit:      cfg.Intake.DailyLimit,
			EnforceCapacity: cfg.Intake.EnforceCapacity,
		},
		MaxResumeBytes: cfg.Intake.MaxResumeBytes,
	}, logger)
}

// withStore loads the config, opens the store and hands both to fn.
func withStore(fn func(ctx context.Context, cfg *config.Config, st model.Store, logger *slog.Logger) error) error {
	logger := setupLogger(debug)
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	st, err := openStore(cfg, logger)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer st.Close()
	return fn(context.Background(), cfg, st, logger)
}
