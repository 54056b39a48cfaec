package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/skokaina/ark-n8n-custom-nodes/tool"
)

// NewToolsCmd creates the "tools" command group.
func NewToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect and call the tools in the n8n manifest",
	}
	cmd.AddCommand(newToolsListCmd())
	cmd.AddCommand(newToolsCallCmd())
	return cmd
}

func newToolsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tools the bridge would serve",
		Args:  cobra.NoArgs,
		RunE:  runToolsList,
	}
	addConfigFlags(cmd)
	return cmd
}

func newToolsCallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "call <name> [params]",
		Short: "Call one tool through its n8n webhook",
		Long:  "Call one tool through its n8n webhook. params is a JSON object, or a plain value for tools with a single parameter.",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runToolsCall,
	}
	addConfigFlags(cmd)
	return cmd
}

// toolSession is the manifest-backed registry used by the tools commands.
type toolSession struct {
	loaded   tool.LoadResult
	proxy    *tool.Proxy
	registry *tool.Registry
}

// localDispatcher accepts every adapter; the CLI calls adapters directly.
type localDispatcher struct{}

func (localDispatcher) AddTool(*tool.Adapter) error { return nil }

func openToolSession(cmd *cobra.Command) (*toolSession, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg, cmd.ErrOrStderr())
	if !strings.EqualFold(cfg.LogLevel, "debug") {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	loaded := tool.LoadManifest(cfg.ManifestPath())
	if loaded.Fallback {
		fmt.Fprintf(cmd.ErrOrStderr(), "Manifest %s unavailable (%v); using demo tools\n", loaded.Path, loaded.Err)
	}

	proxy := tool.NewProxy(tool.ProxyConfig{
		BaseURL: cfg.N8NInternalURL,
		APIKey:  cfg.N8NAPIKey,
		Logger:  logger,
	})
	registry, failures := tool.Register(tool.RegisterConfig{
		Dispatcher: localDispatcher{},
		Invoker:    proxy,
		Logger:     logger,
	}, loaded.Manifest.Tools)
	for _, failure := range failures {
		fmt.Fprintf(cmd.ErrOrStderr(), "Skipped %v\n", failure)
	}

	return &toolSession{
		loaded:   loaded,
		proxy:    proxy,
		registry: registry,
	}, nil
}

func runToolsList(cmd *cobra.Command, _ []string) error {
	session, err := openToolSession(cmd)
	if err != nil {
		return err
	}

	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 2, 2, ' ', 0)
	fmt.Fprintln(writer, "NAME\tENDPOINT\tPARAMETERS")
	for _, name := range session.registry.Names() {
		adapter, _ := session.registry.Get(name)
		params := strings.Join(adapter.Parameters().Order, ",")
		if params == "" {
			params = "-"
		}
		fmt.Fprintf(writer, "%s\t%s\t%s\n", name, session.proxy.ResolveEndpoint(adapter.Descriptor()), params)
	}
	return writer.Flush()
}

func runToolsCall(cmd *cobra.Command, args []string) error {
	session, err := openToolSession(cmd)
	if err != nil {
		return err
	}

	name := strings.TrimSpace(args[0])
	adapter, ok := session.registry.Get(name)
	if !ok {
		return exitError(exitToolNotFound, "tool %q not found (available: %s)", name, strings.Join(session.registry.Names(), ", "))
	}

	var input any
	if len(args) == 2 {
		input = args[1]
	}
	result := adapter.Call(cmd.Context(), input)
	fmt.Fprintln(cmd.OutOrStdout(), result.Text())
	if !result.OK() {
		return exitError(exitToolError, "tool %q failed: %s", name, result.Err.Message)
	}
	return nil
}
