// Package httpapi exposes the job board over HTTP with gin.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/amishk599/jobboard/internal/admin"
	"github.com/amishk599/jobboard/internal/catalog"
	"github.com/amishk599/jobboard/internal/intake"
	"github.com/amishk599/jobboard/internal/model"
	"github.com/amishk599/jobboard/internal/ratelimit"
	"github.com/amishk599/jobboard/internal/session"
)

// Deps are the services the router dispatches to.
type Deps struct {
	Store    model.Store
	Catalog  *catalog.Service
	Intake   *intake.Service
	Jobs     *admin.JobService
	Triage   *admin.TriageService
	Sessions *session.Manager
	Limiter  *ratelimit.ClientLimiter // nil disables throttling
	Logger   *slog.Logger

	CORSOrigins    []string // empty allows any origin
	MaxResumeBytes int64
}

type handler struct {
	Deps
}

// NewRouter builds the gin engine with middleware and every route.
func NewRouter(d Deps) *gin.Engine {
	if d.MaxResumeBytes <= 0 {
		d.MaxResumeBytes = intake.DefaultMaxResumeBytes
	}
	h := &handler{Deps: d}

	r := gin.New()
	r.MaxMultipartMemory = d.MaxResumeBytes + 1<<20
	r.Use(RequestID(), AccessLog(d.Logger), Recover(d.Logger), cors.New(corsConfig(d.CORSOrigins)))
	if d.Limiter != nil {
		r.Use(Throttle(d.Limiter))
	}
	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "not_found", "route not found", nil)
	})

	api := r.Group("/api/v1")
	{
		api.GET("/health", h.health)
		api.GET("/jobs", h.listJobs)
		api.GET("/jobs/:id", h.getJob)
		api.POST("/jobs/:id/applications", h.submitApplication)
		api.GET("/applicants/:email/applied", h.appliedJobs)

		api.POST("/admin/login", h.login)
	}

	adm := api.Group("/admin", RequireAdmin(d.Sessions))
	{
		adm.POST("/logout", h.logout)
		adm.GET("/stats", h.stats)
		adm.GET("/jobs", h.adminListJobs)
		adm.POST("/jobs", h.createJob)
		adm.PUT("/jobs/:id", h.updateJob)
		adm.POST("/jobs/:id/toggle", h.toggleJob)
		adm.GET("/applications", h.listApplications)
		adm.PATCH("/applications/:id/status", h.setApplicationStatus)
		adm.GET("/applications/export", h.exportApplications)
	}

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	cfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", requestIDHeader}
	cfg.ExposeHeaders = []string{requestIDHeader, "Retry-After", "Content-Disposition"}
	return cfg
}

// fail logs unexpected errors and writes the mapped response.
func (h *handler) fail(c *gin.Context, err error) {
	var perr *model.PersistenceError
	if errors.As(err, &perr) || !isKnown(err) {
		h.Logger.Error("request failed",
			"request_id", RequestIDFrom(c),
			"path", c.Request.URL.Path,
			"error", err,
		)
	}
	respondError(c, err)
}

func isKnown(err error) bool {
	var verr *model.ValidationError
	if errors.As(err, &verr) {
		return true
	}
	for _, target := range []error{
		model.ErrDuplicateApplication, model.ErrRateLimitExceeded, model.ErrJobNotFound,
		model.ErrJobClosed, model.ErrJobFull, model.ErrApplicationNotFound,
		model.ErrInvalidStatus, model.ErrInvalidCredentials, model.ErrSessionNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Server wraps http.Server with context-driven graceful shutdown.
type Server struct {
	srv             *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// NewServer creates a Server listening on addr.
func NewServer(addr string, handler http.Handler, readTimeout, writeTimeout, shutdownTimeout time.Duration, logger *slog.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       readTimeout,
			ReadHeaderTimeout: readTimeout,
			WriteTimeout:      writeTimeout,
		},
		shutdownTimeout: shutdownTimeout,
		logger:          logger,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.srv.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
