package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxpal/internal/config"
	"github.com/teemow/inboxpal/internal/instrumentation"
	"github.com/teemow/inboxpal/internal/logging"
	"github.com/teemow/inboxpal/internal/server"
)

// MetricsConfig holds configuration for the metrics server
type MetricsConfig struct {
	// Enabled determines whether to start the metrics server
	Enabled bool

	// Addr is the address for the metrics server (e.g., ":9090")
	Addr string
}

type serveOptions struct {
	commonOptions
	metrics MetricsConfig
}

func newServeCmd() *cobra.Command {
	o := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API for the assistant frontend",
		Long: `Start the HTTP API used by the inboxpal frontend.

The API signs users in with Google OAuth, and serves the unread, recent and
ranked inbox routes, summarization, command classification and audio
transcription. Callers send their Google tokens with every request; the
server keeps no per-user state.

Configuration:
  Google OAuth:  --google-client-secret-file, or --google-client-id and
                 --google-client-secret (GOOGLE_CLIENT_SECRET_FILE,
                 GOOGLE_CLIENT_ID, GOOGLE_CLIENT_SECRET)
  OpenAI:        --openai-api-key (OPENAI_API_KEY)
  Frontend:      --frontend-url receives the OAuth callback redirect and is
                 the default CORS origin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			o.loadSecrets()
			if !cmd.Flags().Changed("metrics-enabled") {
				o.metrics.Enabled = config.EnvBoolOrDefault("METRICS_ENABLED", o.metrics.Enabled)
			}
			return runServe(o)
		},
	}

	addCommonFlags(cmd, &o.commonOptions)

	f := cmd.Flags()
	f.StringVar(&o.cfg.HTTPAddr, "addr", config.EnvOrDefault("INBOXPAL_ADDR", config.DefaultHTTPAddr), "HTTP listen address")
	f.StringVar(&o.cfg.FrontendURL, "frontend-url", config.EnvOrDefault("FRONTEND_URL", config.DefaultFrontendURL), "Frontend URL for the OAuth redirect and CORS")
	f.StringSliceVar(&o.cfg.AllowedOrigins, "allowed-origins", config.ParseCommaSeparatedList(os.Getenv("ALLOWED_ORIGINS")), "CORS origins (default: the frontend URL)")
	f.BoolVar(&o.cfg.ExposeClientCredentials, "expose-client-credentials", config.EnvBoolOrDefault("EXPOSE_CLIENT_CREDENTIALS", false), "Serve the OAuth client id and secret on /api/auth/credentials. Never enable this in production")

	f.BoolVar(&o.metrics.Enabled, "metrics-enabled", true, "Serve Prometheus metrics on a separate listener (can also be set via METRICS_ENABLED)")
	f.StringVar(&o.metrics.Addr, "metrics-addr", config.EnvOrDefault("METRICS_ADDR", server.DefaultMetricsAddr), "Metrics listen address")

	return cmd
}

func runServe(o *serveOptions) error {
	cfg := &o.cfg
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := o.newLogger()

	provider, stopInstrumentation, err := startInstrumentation(ctx, logger)
	if err != nil {
		return err
	}
	defer stopInstrumentation()
	metrics := provider.Metrics()

	svc, err := buildAssistant(cfg, metrics, logger)
	if err != nil {
		return err
	}

	serverContext, err := server.NewServerContext(ctx, svc)
	if err != nil {
		return fmt.Errorf("failed to create server context: %w", err)
	}
	serverContext.SetMetrics(metrics)
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	health := server.NewHealthChecker(serverContext)
	api, err := server.NewAPI(serverContext, health, server.APIConfig{
		FrontendURL:             cfg.FrontendURL,
		AllowedOrigins:          cfg.Origins(),
		ExposeClientCredentials: cfg.ExposeClientCredentials,
		Metrics:                 metrics,
		Logger:                  logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create API: %w", err)
	}

	metricsServer, err := startMetricsServer(o.metrics, provider, logger)
	if err != nil {
		return err
	}

	httpServer := server.NewHTTPServer(cfg.HTTPAddr, api.Handler())
	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		logger.Info("starting HTTP API", slog.String("addr", cfg.HTTPAddr), slog.String("frontend", cfg.FrontendURL))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping HTTP API")
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("HTTP server stopped with error: %w", err)
		}
	}

	health.SetReady(false)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer shutdownCancel()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("error shutting down metrics server", logging.Err(err))
		}
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down HTTP server: %w", err)
	}

	logger.Info("HTTP API gracefully stopped")
	return nil
}

// startMetricsServer starts the Prometheus listener when enabled and
// supported by the provider. It returns nil when no server was started.
func startMetricsServer(mc MetricsConfig, provider *instrumentation.Provider, logger *slog.Logger) (*server.MetricsServer, error) {
	if !mc.Enabled || !provider.Enabled() || !provider.PrometheusEnabled() {
		return nil, nil
	}

	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    mc.Addr,
		InstrumentationProvider: provider,
		Logger:                  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	// A bind failure surfaces almost immediately.
	select {
	case err := <-metricsErr:
		if err != nil {
			return nil, fmt.Errorf("metrics server failed to start: %w", err)
		}
	case <-time.After(200 * time.Millisecond):
	}
	return metricsServer, nil
}
