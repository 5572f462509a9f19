package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"sort"

	"github.com/ironsheep/lens-ocr/internal/cookies"
	"github.com/ironsheep/lens-ocr/internal/imaging"
	"github.com/ironsheep/lens-ocr/internal/lens"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "lens_scan_file").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", describeError(err))
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "lens_scan_file":
		return s.handleScanFile(ctx, args)
	case "lens_scan_url":
		return s.handleScanURL(ctx, args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "lens_session":
		return s.handleSession()
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// describeError adds the HTTP status to errors caused by a Lens response.
// Response bodies are left out; they are whole HTML pages.
func describeError(err error) string {
	var respErr *lens.ResponseError
	if errors.As(err, &respErr) {
		return fmt.Sprintf("%v (HTTP %d)", respErr.Err, respErr.StatusCode)
	}
	return err.Error()
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// ScanResult is the output of the scan tools.
type ScanResult struct {
	Language string          `json:"language"`
	Text     string          `json:"text"`
	Segments []lens.Segment  `json:"segments,omitempty"`
	Image    lens.Dimensions `json:"image"`
	Resized  bool            `json:"resized,omitempty"`
}

func newScanResult(r *lens.Result, dims lens.Dimensions, textOnly bool) *ScanResult {
	out := &ScanResult{Language: r.Language, Text: r.Text(), Image: dims}
	if !textOnly {
		out.Segments = r.Segments
	}
	return out
}

// === Scanning Handlers ===

type scanFileArgs struct {
	Path     string `json:"path"`
	Region   string `json:"region"`
	TextOnly bool   `json:"text_only"`
}

func (s *Server) handleScanFile(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a scanFileArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	prepared, err := s.loadImage(a.Path, a.Region)
	if err != nil {
		return nil, err
	}
	result, err := s.scanner.ScanPrepared(ctx, prepared)
	if err != nil {
		return nil, err
	}
	s.saveCookies()

	out := newScanResult(result, lens.Dimensions{Width: prepared.Width, Height: prepared.Height}, a.TextOnly)
	out.Resized = prepared.Resized
	return out, nil
}

// loadImage prepares the whole image from the cache, or crops region from
// the file on disk.
func (s *Server) loadImage(path, region string) (*imaging.Prepared, error) {
	if region == "" {
		return s.cache.Load(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return imaging.CropRegion(data, region)
}

type scanURLArgs struct {
	URL      string `json:"url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	TextOnly bool   `json:"text_only"`
}

func (s *Server) handleScanURL(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a scanURLArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	u, err := url.Parse(a.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("url must be an absolute http(s) URL: %q", a.URL)
	}

	dims := lens.Dimensions{Width: a.Width, Height: a.Height}
	if !dims.Valid() {
		dims.Width, dims.Height, err = imaging.ProbeURL(ctx, s.opts.ProbeClient, a.URL)
		if err != nil {
			return nil, err
		}
	}

	result, err := s.scanner.ScanByURL(ctx, a.URL, dims)
	if err != nil {
		return nil, err
	}
	s.saveCookies()
	return newScanResult(result, dims, a.TextOnly), nil
}

// === Image Information Handlers ===

type imageDimensionsArgs struct {
	Path string `json:"path"`
}

// ImageInfo describes an image as it would be uploaded.
type ImageInfo struct {
	Path     string `json:"path"`
	MimeType string `json:"mime_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Resized  bool   `json:"resized"`
	Bytes    int    `json:"bytes"`
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageDimensionsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	prepared, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return &ImageInfo{
		Path:     a.Path,
		MimeType: prepared.MimeType,
		Width:    prepared.Width,
		Height:   prepared.Height,
		Resized:  prepared.Resized,
		Bytes:    len(prepared.Data),
	}, nil
}

// === Session Handlers ===

// SessionCookie is a cookie without its value.
type SessionCookie struct {
	Name     string `json:"name"`
	Expires  string `json:"expires,omitempty"`
	Secure   bool   `json:"secure,omitempty"`
	HTTPOnly bool   `json:"httpOnly,omitempty"`
}

func (s *Server) handleSession() (interface{}, error) {
	snapshot := s.scanner.Cookies()
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]SessionCookie, len(names))
	for i, name := range names {
		c := snapshot[name]
		out[i] = SessionCookie{Name: name, Expires: c.Expires, Secure: c.Secure, HTTPOnly: c.HTTPOnly}
	}
	return map[string]interface{}{
		"cookies":     out,
		"cookie_file": s.opts.CookieFile,
	}, nil
}

// saveCookies writes the session cookies to the cookie file, if configured.
// Failures are logged; the scan result is still returned.
func (s *Server) saveCookies() {
	if s.opts.CookieFile == "" {
		return
	}
	if err := cookies.SaveFile(s.opts.CookieFile, s.scanner.Cookies()); err != nil {
		log.Printf("Failed to save cookies: %v", err)
	}
}
