// Package model defines data structures for mcp-notes.
//
// This package contains:
//   - Note: note data model and name sanitization
//   - Config: server configuration
//   - MCP: tool/resource declarations and call results
//   - JSON-RPC 2.0: request/response/error structures
//   - CapabilityError: error kinds raised by the dispatch layer
package model
