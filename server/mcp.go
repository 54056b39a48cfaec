package server

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/skokaina/ark-n8n-custom-nodes/tool"
)

// paramsArgument is the single string argument every tool advertises.
const paramsArgument = "params"

// mcpDispatcher registers adapters on an mcp-go server.
type mcpDispatcher struct {
	server *mcpserver.MCPServer
	logger *slog.Logger
}

func (d *mcpDispatcher) AddTool(adapter *tool.Adapter) error {
	d.server.AddTool(toolDefinition(adapter), toolHandler(adapter, d.logger))
	return nil
}

func toolDefinition(adapter *tool.Adapter) mcp.Tool {
	return mcp.NewTool(adapter.Name(),
		mcp.WithDescription(adapter.Description()),
		mcp.WithString(paramsArgument,
			mcp.Required(),
			mcp.Description(adapter.ParamDescription()),
		),
	)
}

// toolHandler adapts an Adapter to the MCP call shape. The result is always
// a text content block, error payloads included.
func toolHandler(adapter *tool.Adapter, logger *slog.Logger) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		var input any = args
		if v, ok := args[paramsArgument]; ok {
			input = v
		}

		result := adapter.Call(ctx, input)
		if !result.OK() {
			logger.Debug("tool call returned error payload",
				slog.String("tool", adapter.Name()),
				slog.String("code", result.Err.Code),
			)
		}
		return mcp.NewToolResultText(result.Text()), nil
	}
}

var _ tool.Dispatcher = (*mcpDispatcher)(nil)
