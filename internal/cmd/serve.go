package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chuxorg/chux-travel/internal/client"
	"github.com/chuxorg/chux-travel/internal/logging"
	"github.com/chuxorg/chux-travel/internal/telemetry"
	"github.com/chuxorg/chux-travel/internal/web"
)

const serviceName = "travel-web"

func newServeCmd(a *app) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the project pages",
		Long: `Serve the project list on / and each project on /projects/{id}/ui.
Health, readiness and Prometheus metrics are exposed on /healthz,
/readyz and /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := a.cfg
			if cmd.Flags().Changed("listen") {
				cfg.Listen = listen
			}

			level := cfg.LogLevel
			if a.logLevel != "" {
				level = a.logLevel
			}
			logger, err := logging.New(level, cfg.LogFormat, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.TracingEndpoint, serviceName)
			if err != nil {
				return fmt.Errorf("setup tracing: %w", err)
			}
			defer func() {
				if err := shutdownTracing(context.Background()); err != nil {
					logger.Warn("tracing shutdown", zap.Error(err))
				}
			}()

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			metrics := telemetry.NewMetrics(reg)

			timeout, err := cfg.RequestTimeout()
			if err != nil {
				return err
			}
			backend := client.New(cfg.BaseURL,
				client.WithTimeout(timeout),
				client.WithLogger(logger),
				client.WithMetrics(metrics),
			)

			if level != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}
			srv := web.New(web.Config{
				Backend:  backend,
				Logger:   logger,
				Metrics:  metrics,
				Gatherer: reg,
			})
			logger.Info("starting",
				zap.String("version", a.version),
				zap.String("backend", cfg.BaseURL),
				zap.Bool("tracing", cfg.TracingEndpoint != ""),
			)
			return srv.Run(ctx, cfg.Listen)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides config, default :8080)")
	return cmd
}
