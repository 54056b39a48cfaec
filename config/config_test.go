package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func mapLookup(values map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(LoadOptions{Lookup: mapLookup(nil)})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != Default() {
		t.Fatalf("Load() = %#v, want defaults", cfg)
	}
	if got := cfg.ManifestPath(); got != "/tmp/tools/tools.json" {
		t.Fatalf("ManifestPath() = %q", got)
	}
	if got := cfg.Addr(); got != "0.0.0.0:8080" {
		t.Fatalf("Addr() = %q", got)
	}
	if cfg.AuthEnabled() {
		t.Fatal("AuthEnabled() = true without a key")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestLoadEnvironment(t *testing.T) {
	cfg, err := Load(LoadOptions{Lookup: mapLookup(map[string]string{
		EnvToolsSharedPath: "/shared/tools",
		EnvN8NInternalURL:  "http://n8n:5678",
		EnvN8NAPIKey:       "secret",
		EnvPort:            "9090",
		EnvLogLevel:        "",
	})})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ToolsSharedPath != "/shared/tools" || cfg.N8NInternalURL != "http://n8n:5678" || cfg.Port != 9090 {
		t.Fatalf("Load() = %#v", cfg)
	}
	if !cfg.AuthEnabled() {
		t.Fatal("AuthEnabled() = false with a key")
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("LogLevel = %q, want default for empty env value", cfg.LogLevel)
	}
}

func TestLoadRejectsNonNumericPort(t *testing.T) {
	_, err := Load(LoadOptions{Lookup: mapLookup(map[string]string{EnvPort: "http"})})
	if err == nil || !strings.Contains(err.Error(), EnvPort) {
		t.Fatalf("Load() error = %v, want PORT error", err)
	}
}

func TestLoadPrecedence(t *testing.T) {
	yamlPath := writeFile(t, "n8n-mcp.yaml", `
tools_shared_path: /from/yaml
n8n_internal_url: http://yaml:5678
port: 7000
log_format: json
`)
	envPath := writeFile(t, ".env", "N8N_INTERNAL_URL=http://dotenv:5678\nPORT=7100\nN8N_API_KEY=from-dotenv\n")

	cfg, err := Load(LoadOptions{
		ConfigPath: yamlPath,
		EnvFile:    envPath,
		Lookup:     mapLookup(map[string]string{EnvPort: "7200"}),
	})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ToolsSharedPath != "/from/yaml" {
		t.Fatalf("ToolsSharedPath = %q, want yaml value", cfg.ToolsSharedPath)
	}
	if cfg.N8NInternalURL != "http://dotenv:5678" {
		t.Fatalf("N8NInternalURL = %q, want .env over yaml", cfg.N8NInternalURL)
	}
	if cfg.Port != 7200 {
		t.Fatalf("Port = %d, want environment over .env", cfg.Port)
	}
	if cfg.N8NAPIKey != "from-dotenv" {
		t.Fatalf("N8NAPIKey = %q", cfg.N8NAPIKey)
	}
	if cfg.LogFormat != "json" || cfg.MCPPath != DefaultMCPPath {
		t.Fatalf("LogFormat = %q, MCPPath = %q", cfg.LogFormat, cfg.MCPPath)
	}
}

func TestLoadMissingFiles(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(LoadOptions{EnvFile: filepath.Join(dir, ".env"), Lookup: mapLookup(nil)}); err != nil {
		t.Fatalf("missing .env error = %v, want nil", err)
	}
	if _, err := Load(LoadOptions{ConfigPath: filepath.Join(dir, "missing.yaml"), Lookup: mapLookup(nil)}); err == nil {
		t.Fatal("missing explicit config file error = nil, want error")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeFile(t, "bad.yaml", "port: [nope")
	if _, err := Load(LoadOptions{ConfigPath: path, Lookup: mapLookup(nil)}); err == nil {
		t.Fatal("Load() error = nil, want parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{name: "port low", mutate: func(c *Config) { c.Port = 0 }, want: "port"},
		{name: "port high", mutate: func(c *Config) { c.Port = 70000 }, want: "port"},
		{name: "relative url", mutate: func(c *Config) { c.N8NInternalURL = "n8n:5678" }, want: "n8n internal URL"},
		{name: "mcp path", mutate: func(c *Config) { c.MCPPath = "mcp" }, want: "MCP path"},
		{name: "mcp path health", mutate: func(c *Config) { c.MCPPath = "/health" }, want: "collides"},
		{name: "log level", mutate: func(c *Config) { c.LogLevel = "loud" }, want: "log level"},
		{name: "log format", mutate: func(c *Config) { c.LogFormat = "xml" }, want: "log format"},
		{name: "empty path", mutate: func(c *Config) { c.ToolsSharedPath = " " }, want: "tools shared path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Validate() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestDriftCheckEnabled(t *testing.T) {
	cfg := Default()
	if cfg.DriftCheckEnabled() {
		t.Fatal("drift check enabled by default")
	}
	cfg.ManifestCheckSchedule = "@every 1m"
	if !cfg.DriftCheckEnabled() {
		t.Fatal("schedule @every 1m disabled")
	}
	for _, s := range []string{"", "off", "OFF"} {
		cfg.ManifestCheckSchedule = s
		if cfg.DriftCheckEnabled() {
			t.Fatalf("schedule %q enabled, want disabled", s)
		}
	}
}
