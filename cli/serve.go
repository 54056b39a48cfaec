package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	otelapi "go.opentelemetry.io/otel"

	"github.com/skokaina/ark-n8n-custom-nodes/config"
	n8notel "github.com/skokaina/ark-n8n-custom-nodes/otel"
	"github.com/skokaina/ark-n8n-custom-nodes/server"
	"github.com/skokaina/ark-n8n-custom-nodes/tool"
)

const shutdownTimeout = 30 * time.Second

// NewServeCmd creates the "serve" subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the manifest's n8n tools over MCP",
		RunE:  runServe,
	}
	addConfigFlags(cmd)
	cmd.Flags().IntP("port", "p", config.DefaultPort, "Listen port (env "+config.EnvPort+")")
	cmd.Flags().String("host", config.DefaultHost, "Listen host (env "+config.EnvHost+")")
	cmd.Flags().String("mcp-path", config.DefaultMCPPath, "Path the MCP endpoint is mounted on")
	cmd.Flags().String("cors-origin", "", "Allowed CORS origin (disabled when empty)")
	cmd.Flags().String("otlp-endpoint", "", "OTLP/HTTP trace endpoint (env "+config.EnvOTLPEndpoint+")")
	cmd.Flags().String("manifest-check", "", `Manifest drift check schedule, cron or "@every 1m"; default "off"`)
	cmd.Flags().Duration("read-header-timeout", 10*time.Second, "HTTP read header timeout")
	cmd.Flags().Int64("max-body", 4<<20, "Max request body size in bytes")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	opts := serveOptions{
		version: cmd.Root().Version,
		out:     cmd.OutOrStdout(),
		logger:  newLogger(cfg, cmd.ErrOrStderr()),
	}
	opts.corsOrigin, _ = cmd.Flags().GetString("cors-origin")
	opts.readHeaderTimeout, _ = cmd.Flags().GetDuration("read-header-timeout")
	opts.maxBody, _ = cmd.Flags().GetInt64("max-body")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, cfg, opts)
}

type serveOptions struct {
	version           string
	corsOrigin        string
	readHeaderTimeout time.Duration
	maxBody           int64
	out               io.Writer
	logger            *slog.Logger
	// ready is called with the bound address once the listener is up.
	ready func(addr net.Addr)
}

// serve runs the bridge until ctx is cancelled.
func serve(ctx context.Context, cfg config.Config, opts serveOptions) error {
	logger := opts.logger
	if !cfg.AuthEnabled() {
		logger.Warn("N8N_API_KEY is not set; webhook calls are unauthenticated")
	}

	tracerProvider, shutdownTracing, err := n8notel.SetupTracing(ctx, cfg.OTLPEndpoint, cfg.ServerName)
	if err != nil {
		return exitError(exitConfig, "initializing tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", slog.Any("error", err))
		}
	}()

	observer, err := n8notel.NewToolObserver(
		otelapi.GetMeterProvider().Meter("n8n-mcp/tool"),
		tracerProvider.Tracer("n8n-mcp/tool"),
	)
	if err != nil {
		return fmt.Errorf("initializing tool observability: %w", err)
	}

	manifestPath := cfg.ManifestPath()
	loaded := tool.LoadManifest(manifestPath)
	if loaded.Fallback {
		logger.Warn("tool manifest unavailable, serving demo tools",
			slog.String("path", manifestPath),
			slog.Any("error", loaded.Err),
		)
	} else {
		logger.Info("loaded tool manifest",
			slog.String("path", manifestPath),
			slog.Int("tools", len(loaded.Manifest.Tools)),
			slog.String("last_updated", loaded.Manifest.LastUpdated),
		)
	}

	proxy := tool.NewProxy(tool.ProxyConfig{
		BaseURL:  cfg.N8NInternalURL,
		APIKey:   cfg.N8NAPIKey,
		Logger:   logger,
		Observer: observer,
	})

	app, err := server.NewApp(server.AppConfig{
		Name:        cfg.ServerName,
		Version:     opts.version,
		MCPPath:     cfg.MCPPath,
		Descriptors: loaded.Manifest.Tools,
		Invoker:     proxy,
		CORSOrigin:  opts.corsOrigin,
		MaxBody:     opts.maxBody,
		Logger:      logger,
	})
	if err != nil {
		return exitError(exitRuntime, "creating server: %v", err)
	}

	if cfg.DriftCheckEnabled() {
		watcher, err := server.NewManifestWatcher(server.ManifestWatcherConfig{
			Path:     manifestPath,
			Schedule: cfg.ManifestCheckSchedule,
			Logger:   logger,
		})
		if err != nil {
			return exitError(exitConfig, "manifest check schedule: %v", err)
		}
		watcher.Start()
		defer func() {
			_ = watcher.Stop(context.Background())
		}()
	}

	listener, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return exitError(exitRuntime, "listen on %s: %v", cfg.Addr(), err)
	}

	httpServer := &http.Server{
		Handler:           app.Handler(),
		ReadHeaderTimeout: opts.readHeaderTimeout,
	}

	errCh := startServing(app, httpServer, listener)

	fmt.Fprintf(opts.out, "n8n MCP bridge listening on %s (MCP endpoint %s, %d tools)\n",
		listener.Addr(), app.MCPPath(), app.Registry().Len())
	if opts.ready != nil {
		opts.ready(listener.Addr())
	}

	select {
	case <-ctx.Done():
		fmt.Fprintln(opts.out, "Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return exitError(exitRuntime, "shutdown error: %v", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return exitError(exitRuntime, "server error: %v", err)
		}
		return nil
	}
}

// startServing marks the app serving and then starts accepting on the bound
// listener, so no health check can observe the starting state once the
// socket is open.
func startServing(app *server.App, srv *http.Server, listener net.Listener) <-chan error {
	app.MarkServing()
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(listener)
	}()
	return errCh
}
