// Package server hosts the registered n8n tools behind an MCP endpoint and
// serves the liveness document.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/skokaina/ark-n8n-custom-nodes/tool"
)

const (
	// DefaultName is the MCP server name advertised to clients.
	DefaultName = "n8n-tools"
	// DefaultMCPPath is where the MCP transport is mounted.
	DefaultMCPPath = "/mcp"

	defaultVersion = "dev"
	defaultMaxBody = 4 << 20
)

// AppConfig configures an App.
type AppConfig struct {
	Name        string
	Version     string
	MCPPath     string
	Descriptors []tool.ToolDescriptor
	Invoker     tool.Invoker
	CORSOrigin  string
	MaxBody     int64
	Logger      *slog.Logger
}

// App is the application context: the MCP server, the registry built from
// the manifest, and the lifecycle state. It holds no package-level state.
type App struct {
	name       string
	mcpPath    string
	corsOrigin string
	maxBody    int64
	logger     *slog.Logger

	mcp      *mcpserver.MCPServer
	registry *tool.Registry
	failures []tool.RegistrationFailure
	serving  atomic.Bool
}

// NewApp builds the MCP server and registers one tool per descriptor.
// Registration failures are recorded on the App and never abort startup.
func NewApp(cfg AppConfig) (*App, error) {
	if cfg.Invoker == nil {
		return nil, errors.New("server: invoker is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = DefaultName
	}
	version := strings.TrimSpace(cfg.Version)
	if version == "" {
		version = defaultVersion
	}
	mcpPath := strings.TrimSpace(cfg.MCPPath)
	if mcpPath == "" {
		mcpPath = DefaultMCPPath
	}
	maxBody := cfg.MaxBody
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}

	mcp := mcpserver.NewMCPServer(name, version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)

	registry, failures := tool.Register(tool.RegisterConfig{
		Dispatcher: &mcpDispatcher{server: mcp, logger: logger},
		Invoker:    cfg.Invoker,
		Logger:     logger,
	}, cfg.Descriptors)

	logger.Info("tools registered",
		slog.Int("registered", registry.Len()),
		slog.Int("failed", len(failures)),
		slog.Any("tools", registry.Names()),
	)

	return &App{
		name:       name,
		mcpPath:    mcpPath,
		corsOrigin: strings.TrimSpace(cfg.CORSOrigin),
		maxBody:    maxBody,
		logger:     logger,
		mcp:        mcp,
		registry:   registry,
		failures:   failures,
	}, nil
}

// Registry returns the adapters that were registered.
func (a *App) Registry() *tool.Registry {
	return a.registry
}

// Failures returns the descriptors that could not be registered.
func (a *App) Failures() []tool.RegistrationFailure {
	return a.failures
}

// MCPServer exposes the underlying MCP dispatcher.
func (a *App) MCPServer() *mcpserver.MCPServer {
	return a.mcp
}

// MCPPath returns the path the MCP transport is mounted on.
func (a *App) MCPPath() string {
	return a.mcpPath
}

// DisplayName is the server label reported by the health endpoint.
func (a *App) DisplayName() string {
	return a.name + " MCP Server"
}

// MarkServing moves the App to the serving state. It is one-way.
func (a *App) MarkServing() {
	if a.serving.CompareAndSwap(false, true) {
		a.logger.Info("serving", slog.String("mcp_endpoint", a.mcpPath), slog.Int("tools", a.registry.Len()))
	}
}

// Serving reports whether MarkServing has been called.
func (a *App) Serving() bool {
	return a.serving.Load()
}

// Handler returns an http.Handler with all routes and middleware wired.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	a.RegisterRoutes(mux)

	var handler http.Handler = mux
	handler = a.corsMiddleware(handler)
	handler = a.maxBodyMiddleware(handler)
	return handler
}

// RegisterRoutes mounts the MCP and health routes onto an existing mux.
func (a *App) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle(a.mcpPath, mcpserver.NewStreamableHTTPServer(a.mcp,
		mcpserver.WithEndpointPath(a.mcpPath),
	))
	mux.HandleFunc("GET /{$}", a.handleHealth)
	mux.HandleFunc("GET /health", a.handleHealth)
}

// --- Middleware ---

func (a *App) corsMiddleware(next http.Handler) http.Handler {
	if a.corsOrigin == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", a.corsOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Mcp-Session-Id")
		w.Header().Set("Access-Control-Expose-Headers", "Mcp-Session-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *App) maxBodyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, a.maxBody)
		next.ServeHTTP(w, r)
	})
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
