// Package web serves the travel pages over HTTP.
//
// Every request builds a fresh document from the backend. A POST carries
// the id of the button that submitted it in the _target field; the
// handler loads the page, replays the submission onto the document and
// renders whatever the triggered action left behind.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/chuxorg/chux-travel/internal/page"
	"github.com/chuxorg/chux-travel/internal/telemetry"
)

const (
	readyTimeout    = 2 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Backend is everything the pages need from the projects API.
type Backend interface {
	page.ProjectsAPI
	page.ProjectAPI
}

// Config wires a Server.
type Config struct {
	Backend Backend
	Logger  *zap.Logger
	Metrics *telemetry.Metrics
	// Gatherer is exposed on /metrics. Nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// Server hosts the list and detail pages plus the operational endpoints.
type Server struct {
	backend Backend
	logger  *zap.Logger
	metrics *telemetry.Metrics
	engine  *gin.Engine
}

// New builds the router. The gin mode is left to the caller.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		backend: cfg.Backend,
		logger:  logger,
		metrics: cfg.Metrics,
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(Recovery(logger), RequestID(), Tracing(), AccessLog(logger), Metrics(cfg.Metrics))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/readyz", s.ready)
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/", s.listPage)
	r.POST("/", s.listPage)
	r.GET("/projects/:id/ui", s.detailPage)
	r.POST("/projects/:id/ui", s.detailPage)

	s.engine = r
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
	defer cancel()

	if _, err := s.backend.ListProjects(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "backend_not_ready", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
