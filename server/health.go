package server

import "net/http"

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
)

type healthResponse struct {
	Status      string `json:"status"`
	Server      string `json:"server"`
	ToolsCount  int    `json:"tools_count"`
	MCPEndpoint string `json:"mcp_endpoint"`
}

// handleHealth reports liveness. It returns 503 until the listener is up.
func (a *App) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status:      statusHealthy,
		Server:      a.DisplayName(),
		ToolsCount:  a.registry.Len(),
		MCPEndpoint: a.mcpPath,
	}
	status := http.StatusOK
	if !a.Serving() {
		resp.Status = statusStarting
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
