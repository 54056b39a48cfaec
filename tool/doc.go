// Package tool defines the contract boundary between the n8n tool manifest
// and the MCP dispatcher.
//
// The package is split by concern:
//   - manifest: descriptor types and the fallback-aware manifest loader
//   - schema: best-effort parsing of descriptor parameter schemas
//   - adapter: one generic callable per descriptor
//   - proxy: outbound webhook invocation and response normalization
//   - registry: registration of adapters into a dispatcher
//
// The package does not depend on any MCP library so the CLI, the HTTP
// server, and tests can share one descriptor/adapter contract.
package tool
