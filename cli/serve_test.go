package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/skokaina/ark-n8n-custom-nodes/config"
	"github.com/skokaina/ark-n8n-custom-nodes/server"
	"github.com/skokaina/ark-n8n-custom-nodes/tool"
)

func TestServeUntilCancelled(t *testing.T) {
	cfg := config.Default()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.ToolsSharedPath = writeManifestDir(t, sampleManifest)
	cfg.ManifestCheckSchedule = "@every 1h"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan net.Addr, 1)
	var out bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, cfg, serveOptions{
			version: "test",
			out:     &out,
			logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
			ready:   func(addr net.Addr) { ready <- addr },
		})
	}()

	var addr net.Addr
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not become ready")
	}

	resp, err := http.Get("http://" + addr.String() + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK || body["status"] != "healthy" {
		t.Fatalf("health = %d %v", resp.StatusCode, body)
	}
	if body["tools_count"] != float64(2) || body["mcp_endpoint"] != "/mcp" || body["server"] != "n8n-tools MCP Server" {
		t.Fatalf("health body = %v", body)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not shut down")
	}
}

func TestStartServingMarksAppBeforeAccepting(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app, err := server.NewApp(server.AppConfig{
		Descriptors: tool.DemoTools(),
		Invoker:     tool.NewProxy(tool.ProxyConfig{Logger: logger}),
		Logger:      logger,
	})
	if err != nil {
		t.Fatalf("NewApp() error = %v", err)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	servingAtStart := make(chan bool, 1)
	srv := &http.Server{
		Handler: app.Handler(),
		BaseContext: func(net.Listener) context.Context {
			servingAtStart <- app.Serving()
			return context.Background()
		},
	}

	errCh := startServing(app, srv, listener)
	select {
	case serving := <-servingAtStart:
		if !serving {
			t.Fatal("Serving() = false when the server started accepting")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}

	if err := srv.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		t.Fatalf("Serve() error = %v, want http.ErrServerClosed", err)
	}
}

func TestServeRejectsBadSchedule(t *testing.T) {
	cfg := config.Default()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.ToolsSharedPath = t.TempDir()
	cfg.ManifestCheckSchedule = "whenever"

	err := serve(context.Background(), cfg, serveOptions{
		out:    io.Discard,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if code := exitCode(t, err); code != exitConfig {
		t.Fatalf("exit code = %d, want %d", code, exitConfig)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
