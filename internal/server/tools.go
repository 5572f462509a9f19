package server

import "github.com/ironsheep/lens-ocr/internal/imaging"

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Scanning
		{
			Name:        "lens_scan_file",
			Description: "Recognize the text in a local image file with Google Lens. Returns the detected language, the full text, and each text segment with its bounding box in pixels. Images larger than 1000x1000 are shrunk before upload.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file (png, jpeg, bmp, tiff or webp)",
					},
					"region": map[string]interface{}{
						"type":        "string",
						"description": "Scan only part of the image. Bounding boxes are then relative to the region",
						"enum":        imaging.Regions,
					},
					"text_only": map[string]interface{}{
						"type":        "boolean",
						"description": "Return only the language and full text, without segments. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "lens_scan_url",
			Description: "Recognize the text in an image on the web with Google Lens. The image is fetched once to read its size unless width and height are given.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"url": map[string]interface{}{
						"type":        "string",
						"description": "http(s) URL of the image",
					},
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Optional image width in pixels, used to place bounding boxes",
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Optional image height in pixels, used to place bounding boxes",
					},
					"text_only": map[string]interface{}{
						"type":        "boolean",
						"description": "Return only the language and full text, without segments. Default false",
						"default":     false,
					},
				},
				"required": []string{"url"},
			},
		},

		// Image information
		{
			Name:        "image_dimensions",
			Description: "Get the format and size of an image file as it would be uploaded, including whether it needs shrinking.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},

		// Session
		{
			Name:        "lens_session",
			Description: "List the cookies of the current Lens session (names and expiry only, no values).",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
