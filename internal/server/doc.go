// Package server implements an MCP (Model Context Protocol) server that
// exposes Google Lens text recognition as tools.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
//   - lens_scan_file: Recognize text in a local image
//   - lens_scan_url: Recognize text in an image on the web
//   - image_dimensions: Report an image's format and upload size
//   - lens_session: List the session cookies (without values)
//
// Scan results carry the detected language, the full text joined by
// newlines, and each segment with its bounding box both as fractions of the
// image and as a pixel rectangle.
//
// # Image Caching
//
// Local images are prepared for upload once and cached by path for the
// lifetime of the server process. A scan restricted to a region (such as
// "top-half") crops the file on every call and bypasses the cache; its
// bounding boxes are relative to the region.
//
// # Session
//
// All tool calls share one Lens session. When a cookie file is configured,
// the session cookies are written to it after every successful scan so that a
// restarted server keeps its consent state.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string, plus the HTTP status for Lens responses
//
// # Usage
//
//	srv := server.New(lens.New(cfg), server.Options{Version: Version})
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
