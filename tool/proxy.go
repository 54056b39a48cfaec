package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultInvokeTimeout bounds every outbound webhook call.
	DefaultInvokeTimeout = 30 * time.Second
	// DefaultAPIKeyHeader carries the shared n8n API key.
	DefaultAPIKeyHeader = "X-N8N-API-KEY"
	// DefaultBaseURL is the n8n address used when none is configured.
	DefaultBaseURL = "http://localhost:5678"

	defaultWebhookPrefix = "/webhook/tool/"
	credentialCheckPath  = "/api/v1/workflows"
)

// Invoker executes one call for a descriptor.
type Invoker interface {
	Invoke(ctx context.Context, desc ToolDescriptor, params map[string]any) Result
}

// ProxyConfig configures a Proxy.
type ProxyConfig struct {
	BaseURL      string
	APIKey       string
	APIKeyHeader string
	Timeout      time.Duration
	Client       HTTPClient
	Logger       *slog.Logger
	Observer     Observer
}

// Proxy forwards adapter calls to n8n webhooks. It holds no per-call state
// and is safe for concurrent use.
type Proxy struct {
	baseURL      string
	apiKey       string
	apiKeyHeader string
	timeout      time.Duration
	client       HTTPClient
	logger       *slog.Logger
	observer     Observer
	newID        func() string
}

// NewProxy creates a proxy with one shared pooled HTTP client.
func NewProxy(cfg ProxyConfig) *Proxy {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	header := strings.TrimSpace(cfg.APIKeyHeader)
	if header == "" {
		header = DefaultAPIKeyHeader
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultInvokeTimeout
	}
	client := cfg.Client
	if client == nil {
		client = newHTTPClient(timeout)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	observer := cfg.Observer
	if observer == nil {
		observer = noopObserver{}
	}

	return &Proxy{
		baseURL:      baseURL,
		apiKey:       cfg.APIKey,
		apiKeyHeader: header,
		timeout:      timeout,
		client:       client,
		logger:       logger,
		observer:     observer,
		newID:        uuid.NewString,
	}
}

// BaseURL returns the normalized n8n base URL.
func (p *Proxy) BaseURL() string {
	return p.baseURL
}

// Authenticated reports whether outbound calls carry the API key header.
func (p *Proxy) Authenticated() bool {
	return p.apiKey != ""
}

// ResolveEndpoint computes the webhook URL for a descriptor. The first
// match wins: webhookPath joined onto the base URL, then the legacy
// executionEndpoint verbatim, then {base}/webhook/tool/{name}.
func (p *Proxy) ResolveEndpoint(desc ToolDescriptor) string {
	if desc.WebhookPath != "" {
		return p.baseURL + desc.WebhookPath
	}
	if desc.ExecutionEndpoint != "" {
		return desc.ExecutionEndpoint
	}
	return p.baseURL + defaultWebhookPrefix + desc.Name
}

// Invoke performs exactly one POST to the descriptor's webhook. All
// failures are returned as error results.
func (p *Proxy) Invoke(ctx context.Context, desc ToolDescriptor, params map[string]any) Result {
	requestID := p.newID()
	endpoint := p.ResolveEndpoint(desc)
	logger := p.logger.With(
		slog.String("tool", desc.Name),
		slog.String("endpoint", endpoint),
		slog.String("request_id", requestID),
	)
	logger.Info("executing tool", slog.Bool("authenticated", p.Authenticated()))
	logger.Debug("tool parameters", slog.Any("params", RedactParams(params)))

	start := time.Now()
	result, status := p.invoke(ctx, endpoint, params)

	observation := InvokeObservation{
		RequestID:  requestID,
		ToolName:   desc.Name,
		Endpoint:   endpoint,
		StatusCode: status,
		DurationMS: time.Since(start).Milliseconds(),
		Success:    result.OK(),
	}
	if result.Err != nil {
		observation.ErrorCode = result.Err.Code
		logger.Error("tool execution failed",
			slog.String("code", result.Err.Code),
			slog.String("error", result.Err.Message),
		)
	} else {
		logger.Info("tool executed", slog.Int("status", status), slog.Int64("duration_ms", observation.DurationMS))
	}
	p.observer.ObserveInvoke(observation)
	return result
}

func (p *Proxy) invoke(ctx context.Context, endpoint string, params map[string]any) (Result, int) {
	if params == nil {
		params = map[string]any{}
	}
	body, err := json.Marshal(params)
	if err != nil {
		return Failure(newInvocationError(
			ErrorCodeInvalidRequest,
			fmt.Sprintf("Tool execution error: encode parameters: %v", err),
			err,
		)), 0
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return Failure(newInvocationError(
			ErrorCodeInvalidRequest,
			fmt.Sprintf("Tool execution error: %v", err),
			err,
		)), 0
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	p.authenticate(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return Failure(newInvocationError(
			ErrorCodeUpstreamTransport,
			fmt.Sprintf("Tool execution error: %v", err),
			err,
		)), 0
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Failure(newInvocationError(
			ErrorCodeUpstreamTransport,
			fmt.Sprintf("Tool execution error: read response: %v", err),
			err,
		)), resp.StatusCode
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		invErr := newInvocationError(
			ErrorCodeUpstreamHTTP,
			fmt.Sprintf("Tool execution failed: %d - %s", resp.StatusCode, string(respBody)),
			nil,
		)
		invErr.StatusCode = resp.StatusCode
		invErr.Body = string(respBody)
		return Failure(invErr), resp.StatusCode
	}

	value, err := decodeWebhookResponse(respBody)
	if err != nil {
		invErr := newInvocationError(
			ErrorCodeUpstreamTransport,
			fmt.Sprintf("Tool execution error: decode response: %v", err),
			err,
		)
		invErr.StatusCode = resp.StatusCode
		invErr.Body = string(respBody)
		return Failure(invErr), resp.StatusCode
	}
	return Success(unwrapResultEnvelope(value)), resp.StatusCode
}

// CheckCredentials verifies that n8n is reachable and accepts the API key
// by listing workflows once.
func (p *Proxy) CheckCredentials(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+credentialCheckPath, nil)
	if err != nil {
		return fmt.Errorf("tool: build credential check request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	p.authenticate(req)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("tool: credential check failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		message := strings.TrimSpace(string(body))
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("tool: credential check returned status %d: %s", resp.StatusCode, message)
	}
	return nil
}

func (p *Proxy) authenticate(req *http.Request) {
	if p.apiKey != "" {
		req.Header.Set(p.apiKeyHeader, p.apiKey)
	}
}

var _ Invoker = (*Proxy)(nil)
