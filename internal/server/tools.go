package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty(what string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the " + what,
	}
}

var pointsProperty = map[string]interface{}{
	"type":        "array",
	"description": "Pixel coordinates to sample",
	"items": map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"x":     map[string]interface{}{"type": "integer"},
			"y":     map[string]interface{}{"type": "integer"},
			"label": map[string]interface{}{"type": "string"},
		},
		"required": []string{"x", "y"},
	},
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Frame Inspection
		{
			Name:        "frame_load",
			Description: "Load a rendered frame and return its dimensions, format and file size. The frame is cached for later calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("frame image"),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "frame_sample_colors",
			Description: "Sample the colour at specific pixels. Each sample lists the configured ranges (box, defect, protein) it falls in. Use this to check why a region is or is not segmented.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty("frame image"),
					"points": pointsProperty,
				},
				"required": []string{"path", "points"},
			},
		},
		{
			Name:        "frame_dominant_colors",
			Description: "List the most common colours in a frame or region, with their share of pixels and the configured ranges each one matches.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("frame image"),
					"count": map[string]interface{}{
						"type":        "integer",
						"description": "Number of colours to return. Default 8",
						"default":     8,
					},
					"region": map[string]interface{}{
						"type":        "object",
						"description": "Optional region to restrict the analysis",
						"properties": map[string]interface{}{
							"x1": map[string]interface{}{"type": "integer"},
							"y1": map[string]interface{}{"type": "integer"},
							"x2": map[string]interface{}{"type": "integer"},
							"y2": map[string]interface{}{"type": "integer"},
						},
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "frame_suggest_range",
			Description: "Suggest a colour range covering the sampled pixels, widened by a margin. The result can be pasted into the ranges section of the configuration.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":   pathProperty("frame image"),
					"points": pointsProperty,
					"margin": map[string]interface{}{
						"type":        "integer",
						"description": "Per-channel widening of the sampled bounds. Default 8",
						"default":     8,
					},
				},
				"required": []string{"path", "points"},
			},
		},

		// Pipeline
		{
			Name:        "frame_segment",
			Description: "Segment a frame with the configured ranges and report pixel counts of the filled box, the defect mask and the protein footprint, plus the number of defect contours.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("frame image"),
					"include_masks": map[string]interface{}{
						"type":        "boolean",
						"description": "Return each mask as a base64-encoded PNG. Default false",
						"default":     false,
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "frame_preview",
			Description: "Render the frame with the box, defect and protein masks tinted on top, as base64-encoded PNG. An optional coordinate grid helps pick points for frame_sample_colors.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty("frame image"),
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Optional scale factor (e.g., 0.5 to halve the size). Default 1.0",
						"default":     1.0,
					},
					"grid_spacing": map[string]interface{}{
						"type":        "integer",
						"description": "Draw a coordinate grid every N frame pixels. Omit for no grid",
					},
					"grid_labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Label grid intersections with their frame coordinates. Default false",
						"default":     false,
					},
					"grid_color": map[string]interface{}{
						"type":        "string",
						"description": "Grid colour as #RRGGBB or #RRGGBBAA. Default #FF000080",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "frame_analyze",
			Description: "Run the full defect analysis on one frame, calibrating against that frame's own box. Returns the records and the lines they would produce in the output files.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":         pathProperty("lipid frame"),
					"protein_path": pathProperty("companion protein frame (optional). When given, protein is read from this frame whatever the configured source"),
					"side_x": map[string]interface{}{
						"type":        "number",
						"description": "Box side along x in Angstroms. Defaults to the configured value",
					},
					"side_y": map[string]interface{}{
						"type":        "number",
						"description": "Box side along y in Angstroms. Defaults to the configured value",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "frames_run",
			Description: "Process a whole directory of frames and write the output files. Returns the run summary and the paths written.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"frames_dir":  pathProperty("frames directory. Defaults to the configured value"),
					"protein_dir": pathProperty("protein frames directory (optional). When given, protein is read from companion frames in this directory whatever the configured source"),
					"output_dir":  pathProperty("output directory. Defaults to the configured value"),
					"workers": map[string]interface{}{
						"type":        "integer",
						"description": "Frames processed in parallel. Defaults to the configured value",
					},
				},
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
