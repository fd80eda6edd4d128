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

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/textcal/internal/api"
	"github.com/teemow/textcal/internal/config"
	"github.com/teemow/textcal/internal/logging"
	"github.com/teemow/textcal/internal/resources"
	"github.com/teemow/textcal/internal/server"
	"github.com/teemow/textcal/internal/tools/calendar_tools"
	"github.com/teemow/textcal/internal/tools/google_tools"
)

const (
	transportHTTP  = "http"
	transportStdio = "stdio"

	httpReadHeaderTimeout = 10 * time.Second
	// The write timeout covers a full translate-and-execute round trip.
	httpWriteTimeout = 3 * time.Minute
	httpIdleTimeout  = 60 * time.Second
)

type serveFlags struct {
	transport      string
	httpAddr       string
	metricsAddr    string
	metricsEnabled bool
	yolo           bool
}

func newServeCmd() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API or the MCP server",
		Long: `Start textcal as a long-running server.

Supports multiple transport types:
  - http: JSON API (default). Callers pass their Google token as
    "Authorization: Bearer <token>". A Prometheus metrics server runs on a
    separate address.
  - stdio: MCP server on standard input/output for AI assistants. Uses the
    token stored by 'textcal auth login'.

Safety Mode (stdio):
  By default the MCP server only registers read-only tools (preview and
  mirror listing). Use --yolo to register calendar_apply_text.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("http-addr") {
				cfg.HTTP.Addr = flags.httpAddr
			}
			if cmd.Flags().Changed("metrics-addr") {
				cfg.Metrics.Addr = flags.metricsAddr
			}
			if cmd.Flags().Changed("metrics") {
				cfg.Metrics.Enabled = flags.metricsEnabled
			}
			return runServe(cmd.Context(), cfg, flags)
		},
	}

	cmd.Flags().StringVar(&flags.transport, "transport", transportHTTP, "Transport type: http or stdio")
	cmd.Flags().StringVar(&flags.httpAddr, "http-addr", config.DefaultHTTPAddr, "HTTP API listen address")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", config.DefaultMetricsAddr, "Metrics server listen address")
	cmd.Flags().BoolVar(&flags.metricsEnabled, "metrics", true, "Start the metrics server (http transport only)")
	cmd.Flags().BoolVar(&flags.yolo, "yolo", false, "Register tools that modify the calendar (stdio transport only)")

	return cmd
}

func runServe(ctx context.Context, cfg *config.Config, flags serveFlags) error {
	if flags.transport != transportHTTP && flags.transport != transportStdio {
		return fmt.Errorf("unsupported transport type: %s (supported: http, stdio)", flags.transport)
	}

	// Setup graceful shutdown
	shutdownCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := newLogger(cfg)

	a, err := newApp(shutdownCtx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.instr.Shutdown(context.Background()); err != nil {
			logger.Warn("error during instrumentation shutdown", logging.Err(err))
		}
	}()

	serverContext := server.NewServerContext(shutdownCtx, server.Options{
		Planner:       a.planner,
		DB:            a.db,
		Store:         a.store,
		TokenProvider: a.tokens,
		Account:       cfg.Account,
		Metrics:       a.instr.Metrics(),
	})
	defer func() {
		if err := serverContext.Shutdown(); err != nil {
			logger.Warn("error during server context shutdown", logging.Err(err))
		}
	}()

	if flags.transport == transportStdio {
		return runStdioServer(serverContext, !flags.yolo)
	}
	return runHTTPServer(shutdownCtx, serverContext, cfg, a, logger)
}

func runStdioServer(sc *server.ServerContext, readOnly bool) error {
	mcpSrv := mcpserver.NewMCPServer("textcal", version,
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithResourceCapabilities(false, false), // Subscribe and listChanged
	)
	if err := registerAll(mcpSrv, sc, readOnly); err != nil {
		return err
	}

	serverDone := make(chan error, 1)
	go func() {
		defer close(serverDone)
		if err := mcpserver.ServeStdio(mcpSrv); err != nil {
			serverDone <- err
		}
	}()

	select {
	case err := <-serverDone:
		if err != nil {
			return fmt.Errorf("server stopped with error: %w", err)
		}
	case <-sc.Context().Done():
	}
	return nil
}

// registerAll registers every MCP tool and resource.
func registerAll(mcpSrv *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	registrations := []struct {
		name     string
		register func() error
	}{
		{"Calendar", func() error { return calendar_tools.RegisterCalendarTools(mcpSrv, sc, readOnly) }},
		{"Google OAuth", func() error { return google_tools.RegisterGoogleTools(mcpSrv, sc) }},
		{"Resources", func() error { return resources.RegisterResources(mcpSrv, sc) }},
	}

	for _, reg := range registrations {
		if err := reg.register(); err != nil {
			return fmt.Errorf("failed to register %s: %w", reg.name, err)
		}
	}
	return nil
}

func runHTTPServer(ctx context.Context, sc *server.ServerContext, cfg *config.Config, a *app, logger *slog.Logger) error {
	health := server.NewHealthChecker(sc)

	var metricsServer *server.MetricsServer
	if cfg.Metrics.Enabled && a.instr.Enabled() {
		var err error
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:                    cfg.Metrics.Addr,
			Enabled:                 true,
			InstrumentationProvider: a.instr,
		})
		if err != nil {
			// Non-prometheus exporters push their metrics; nothing to serve.
			logger.Warn("metrics server disabled", logging.Err(err))
			metricsServer = nil
		}
	}
	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", logging.Err(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
			defer cancel()
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("error during metrics server shutdown", logging.Err(err))
			}
		}()
	}

	router := api.NewRouter(api.Dependencies{
		Planner: sc.Planner(),
		Store:   sc.Store(),
		Health:  health,
		Metrics: sc.Metrics(),
		Logger:  logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: httpReadHeaderTimeout,
		WriteTimeout:      httpWriteTimeout,
		IdleTimeout:       httpIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP API", slog.String("addr", cfg.HTTP.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// Stop advertising readiness before draining connections.
	health.SetReady(false)
	logger.Info("shutting down HTTP API")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), server.DefaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}
	return nil
}
