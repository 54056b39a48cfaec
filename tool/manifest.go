package tool

import (
	"encoding/json"
	"strings"
	"time"
)

// DefaultManifestFile is the file name n8n writes tool metadata to inside
// the shared tools directory.
const DefaultManifestFile = "tools.json"

// ToolDescriptor describes one n8n tool as published in the manifest.
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Schema      json.RawMessage `json:"schema,omitempty"`

	// WebhookPath is joined onto the configured n8n base URL.
	WebhookPath string `json:"webhookPath,omitempty"`
	// ExecutionEndpoint is the legacy absolute endpoint, used verbatim.
	ExecutionEndpoint string `json:"executionEndpoint,omitempty"`

	WorkflowID string `json:"workflowId,omitempty"`
	NodeID     string `json:"nodeId,omitempty"`

	decodeErr error
}

// DecodeErr reports why the manifest entry behind this descriptor could not
// be decoded. Register turns it into a failure for this tool alone.
func (d ToolDescriptor) DecodeErr() error {
	return d.decodeErr
}

// Manifest is the document n8n writes to the shared tools directory.
type Manifest struct {
	Tools       []ToolDescriptor `json:"tools"`
	LastUpdated string           `json:"lastUpdated,omitempty"`
}

// UpdatedAt parses LastUpdated as an RFC 3339 timestamp.
func (m Manifest) UpdatedAt() (time.Time, bool) {
	raw := strings.TrimSpace(m.LastUpdated)
	if raw == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// Names returns descriptor names in manifest order, including empty ones.
func (m Manifest) Names() []string {
	names := make([]string, 0, len(m.Tools))
	for _, desc := range m.Tools {
		names = append(names, desc.Name)
	}
	return names
}

// DemoTools returns the built-in tool set used when no manifest is available.
func DemoTools() []ToolDescriptor {
	return []ToolDescriptor{
		{
			Name:        "calculator",
			Description: "Perform mathematical calculations",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"expression": {
						"type": "string",
						"description": "Mathematical expression to evaluate"
					}
				},
				"required": ["expression"]
			}`),
		},
		{
			Name:        "word_count",
			Description: "Count words in text",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"text": {
						"type": "string",
						"description": "Text to analyze"
					}
				},
				"required": ["text"]
			}`),
		},
	}
}
