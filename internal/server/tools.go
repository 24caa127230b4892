package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// pathProperty is the schema shared by every tool that reads one image.
var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the image file",
}

// classesProperty restricts a tool to some of the configured color classes.
var classesProperty = map[string]interface{}{
	"type":        "array",
	"items":       map[string]interface{}{"type": "string"},
	"description": "Optional color class names to run (default: all configured classes, in configured order)",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, format, color depth and file size. The decoded image is cached for subsequent sign_* calls.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},

		// Color Tuning
		{
			Name:        "sign_sample_color",
			Description: "Sample pixel colors and report their RGB, HSV and folded hue along with the configured color classes that accept each pixel. Use this to tune class hue windows and saturation floors.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"points": map[string]interface{}{
						"type": "array",
						"items": map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"x": map[string]interface{}{"type": "integer"},
								"y": map[string]interface{}{"type": "integer"},
							},
							"required": []string{"x", "y"},
						},
						"description": "Pixel coordinates to sample, 0-based from the top-left",
					},
				},
				"required": []string{"path", "points"},
			},
		},

		// Pipeline Stages
		{
			Name:        "sign_segment",
			Description: "Threshold the image in HSV space for each sign color class, clean the masks (small-object removal and closing) and report the pixel count and connected regions per class.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty,
					"classes": classesProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "sign_circles",
			Description: "Find circular sign candidates in each color class mask with a circular Hough transform. Candidates are ordered by descending score. Does not need a trained model.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty,
					"classes": classesProperty,
				},
				"required": []string{"path"},
			},
		},

		// Detection
		{
			Name:        "sign_detect",
			Description: "Run the full pipeline on one image: segment, locate circles, extract HOG descriptors and classify each candidate. Returns circle geometry, label and confidence per detection. Requires a loaded model.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "sign_detect_batch",
			Description: "Run sign_detect over several images in parallel. Results are returned in input order. The first failing image fails the whole call.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"paths": map[string]interface{}{
						"type":        "array",
						"items":       map[string]interface{}{"type": "string"},
						"description": "Absolute paths to the image files",
					},
					"workers": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum images processed at once. Default: number of CPUs",
					},
				},
				"required": []string{"paths"},
			},
		},
		{
			Name:        "sign_annotate",
			Description: "Draw detected signs (or raw circle candidates when no model is loaded) onto the image and return it as base64-encoded PNG. Each circle is numbered in result order.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"color": map[string]interface{}{
						"type":        "string",
						"description": "Stroke color in hex format. Default: #DC1414",
						"default":     "#DC1414",
					},
				},
				"required": []string{"path"},
			},
		},

		// Model Management
		{
			Name:        "sign_train",
			Description: "Train a classifier from a directory of exemplar images (file name without extension = label), optionally save it, and install it for subsequent detections.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"dir": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the exemplar directory",
					},
					"save_path": map[string]interface{}{
						"type":        "string",
						"description": "Optional path the trained model is written to",
					},
				},
				"required": []string{"dir"},
			},
		},
		{
			Name:        "sign_model_info",
			Description: "Describe the loaded classifier model: labels, descriptor configuration and size.",
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
