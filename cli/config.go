package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/skokaina/ark-n8n-custom-nodes/config"
)

// addConfigFlags registers the flags shared by every command that needs
// bridge configuration. Flags override the environment only when set.
func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to YAML config file")
	cmd.Flags().String("env-file", config.DefaultEnvFile, "Path to .env file (ignored when missing)")
	cmd.Flags().String("tools-path", "", "Directory holding the tool manifest (env "+config.EnvToolsSharedPath+")")
	cmd.Flags().String("manifest-file", "", "Manifest file name inside the tools directory")
	cmd.Flags().String("n8n-url", "", "Base URL of the n8n instance (env "+config.EnvN8NInternalURL+")")
	cmd.Flags().String("log-level", "", "Log level: debug | info | warn | error")
	cmd.Flags().String("log-format", "", "Log format: text | json")
}

// resolveConfig loads configuration and applies explicitly set flags.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env-file")

	cfg, err := config.Load(config.LoadOptions{
		ConfigPath: configPath,
		EnvFile:    envFile,
	})
	if err != nil {
		return config.Config{}, exitError(exitConfig, "%v", err)
	}

	overrideString(cmd, "tools-path", &cfg.ToolsSharedPath)
	overrideString(cmd, "manifest-file", &cfg.ManifestFile)
	overrideString(cmd, "n8n-url", &cfg.N8NInternalURL)
	overrideString(cmd, "log-level", &cfg.LogLevel)
	overrideString(cmd, "log-format", &cfg.LogFormat)
	overrideString(cmd, "host", &cfg.Host)
	overrideString(cmd, "mcp-path", &cfg.MCPPath)
	overrideString(cmd, "otlp-endpoint", &cfg.OTLPEndpoint)
	overrideString(cmd, "manifest-check", &cfg.ManifestCheckSchedule)
	if cmd.Flags().Lookup("port") != nil && cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, exitError(exitConfig, "%v", err)
	}
	return cfg, nil
}

func overrideString(cmd *cobra.Command, name string, dst *string) {
	if cmd.Flags().Lookup(name) == nil || !cmd.Flags().Changed(name) {
		return
	}
	v, _ := cmd.Flags().GetString(name)
	*dst = strings.TrimSpace(v)
}
