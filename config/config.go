// Package config resolves the bridge settings from defaults, an optional YAML
// file, an optional .env file, and the process environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultToolsSharedPath = "/tmp/tools"
	DefaultManifestFile    = "tools.json"
	DefaultN8NInternalURL  = "http://localhost:5678"
	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8080
	DefaultMCPPath         = "/mcp"
	DefaultServerName      = "n8n-tools"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultEnvFile         = ".env"

	// ScheduleOff disables the manifest drift check. The check is opt-in.
	ScheduleOff                  = "off"
	DefaultManifestCheckSchedule = ScheduleOff
)

// Environment variable names.
const (
	EnvToolsSharedPath       = "TOOLS_SHARED_PATH"
	EnvN8NInternalURL        = "N8N_INTERNAL_URL"
	EnvN8NAPIKey             = "N8N_API_KEY"
	EnvPort                  = "PORT"
	EnvHost                  = "HOST"
	EnvLogLevel              = "LOG_LEVEL"
	EnvLogFormat             = "LOG_FORMAT"
	EnvManifestCheckSchedule = "MANIFEST_CHECK_SCHEDULE"
	EnvOTLPEndpoint          = "OTEL_EXPORTER_OTLP_ENDPOINT"
)

// Config holds every setting the bridge reads at startup.
type Config struct {
	ToolsSharedPath       string `yaml:"tools_shared_path" validate:"required"`
	ManifestFile          string `yaml:"manifest_file" validate:"required"`
	N8NInternalURL        string `yaml:"n8n_internal_url" validate:"required,http_url"`
	N8NAPIKey             string `yaml:"n8n_api_key"`
	Host                  string `yaml:"host"`
	Port                  int    `yaml:"port" validate:"min=1,max=65535"`
	MCPPath               string `yaml:"mcp_path" validate:"required,startswith=/,ne=/,ne=/health"`
	ServerName            string `yaml:"server_name" validate:"required"`
	LogLevel              string `yaml:"log_level" validate:"oneof=debug info warn warning error"`
	LogFormat             string `yaml:"log_format" validate:"oneof=text json"`
	ManifestCheckSchedule string `yaml:"manifest_check_schedule"`
	OTLPEndpoint          string `yaml:"otlp_endpoint"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ToolsSharedPath:       DefaultToolsSharedPath,
		ManifestFile:          DefaultManifestFile,
		N8NInternalURL:        DefaultN8NInternalURL,
		Host:                  DefaultHost,
		Port:                  DefaultPort,
		MCPPath:               DefaultMCPPath,
		ServerName:            DefaultServerName,
		LogLevel:              DefaultLogLevel,
		LogFormat:             DefaultLogFormat,
		ManifestCheckSchedule: DefaultManifestCheckSchedule,
	}
}

// LookupFunc resolves one environment variable.
type LookupFunc func(key string) (string, bool)

// LoadOptions controls Load.
type LoadOptions struct {
	// ConfigPath is an optional YAML file. A missing explicit file is an error.
	ConfigPath string
	// EnvFile is an optional dotenv file. A missing file is ignored.
	EnvFile string
	// Lookup defaults to os.LookupEnv.
	Lookup LookupFunc
}

// Load resolves configuration with precedence
// defaults < YAML file < .env file < environment.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(opts.ConfigPath); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if path := strings.TrimSpace(opts.EnvFile); path != "" {
		dotenv, err := readDotEnv(path)
		if err != nil {
			return Config{}, err
		}
		lookup = withFallback(lookup, dotenv)
	}

	if err := cfg.ApplyEnv(lookup); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

func readDotEnv(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	return values, nil
}

// withFallback consults the real environment first so a .env file never
// overrides variables already set.
func withFallback(primary LookupFunc, fallback map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		if v, ok := primary(key); ok {
			return v, true
		}
		v, ok := fallback[key]
		return v, ok
	}
}

// ApplyEnv overlays non-empty environment values.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	str(EnvToolsSharedPath, &c.ToolsSharedPath)
	str(EnvN8NInternalURL, &c.N8NInternalURL)
	str(EnvN8NAPIKey, &c.N8NAPIKey)
	str(EnvHost, &c.Host)
	str(EnvLogLevel, &c.LogLevel)
	str(EnvLogFormat, &c.LogFormat)
	str(EnvManifestCheckSchedule, &c.ManifestCheckSchedule)
	str(EnvOTLPEndpoint, &c.OTLPEndpoint)

	if v, ok := lookup(EnvPort); ok && strings.TrimSpace(v) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("config: %s=%q is not a number", EnvPort, v)
		}
		c.Port = port
	}
	return nil
}

var fieldLabels = map[string]string{
	"ToolsSharedPath": "tools shared path",
	"ManifestFile":    "manifest file name",
	"N8NInternalURL":  "n8n internal URL",
	"Port":            "port",
	"MCPPath":         "MCP path",
	"ServerName":      "server name",
	"LogLevel":        "log level",
	"LogFormat":       "log format",
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	normalized := c
	normalized.ToolsSharedPath = strings.TrimSpace(c.ToolsSharedPath)
	normalized.ManifestFile = strings.TrimSpace(c.ManifestFile)
	normalized.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	normalized.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))

	validate := validator.New(validator.WithRequiredStructEnabled())
	err := validate.Struct(normalized)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("config: %w", err)
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, describeFieldError(fe))
	}
	return fmt.Errorf("config: %w", errors.Join(errs...))
}

func describeFieldError(fe validator.FieldError) error {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return fmt.Errorf("%s is required", label)
	case "min", "max":
		return fmt.Errorf("%s %v out of range 1-65535", label, fe.Value())
	case "http_url":
		return fmt.Errorf("%s %q must be an absolute http(s) URL", label, fe.Value())
	case "startswith":
		return fmt.Errorf("%s %q must start with %s", label, fe.Value(), fe.Param())
	case "ne":
		return fmt.Errorf("%s %q collides with the health endpoint", label, fe.Value())
	case "oneof":
		return fmt.Errorf("unknown %s %q (want one of: %s)", label, fe.Value(), fe.Param())
	default:
		return fmt.Errorf("%s is invalid (%s)", label, fe.Tag())
	}
}

// ManifestPath is the full path of the tool manifest.
func (c Config) ManifestPath() string {
	return filepath.Join(c.ToolsSharedPath, c.ManifestFile)
}

// Addr is the HTTP listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// AuthEnabled reports whether outbound calls carry the API key.
func (c Config) AuthEnabled() bool {
	return c.N8NAPIKey != ""
}

// DriftCheckEnabled reports whether the manifest drift check runs.
func (c Config) DriftCheckEnabled() bool {
	s := strings.TrimSpace(c.ManifestCheckSchedule)
	return s != "" && !strings.EqualFold(s, ScheduleOff)
}
