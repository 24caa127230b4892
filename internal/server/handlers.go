package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/ironsheep/sign-tools-mcp/internal/detection"
	"github.com/ironsheep/sign-tools-mcp/internal/features"
	"github.com/ironsheep/sign-tools-mcp/internal/imaging"
	"github.com/ironsheep/sign-tools-mcp/internal/pipeline"
	"github.com/ironsheep/sign-tools-mcp/internal/segment"
	"github.com/ironsheep/sign-tools-mcp/internal/training"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "sign_detect").
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
		s.logger.Info("tool failed", zap.String("tool", params.Name), zap.Error(err))
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
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
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Color Tuning
	case "sign_sample_color":
		return s.handleSignSampleColor(args)

	// Pipeline Stages
	case "sign_segment":
		return s.handleSignSegment(args)
	case "sign_circles":
		return s.handleSignCircles(args)

	// Detection
	case "sign_detect":
		return s.handleSignDetect(args)
	case "sign_detect_batch":
		return s.handleSignDetectBatch(ctx, args)
	case "sign_annotate":
		return s.handleSignAnnotate(args)

	// Model Management
	case "sign_train":
		return s.handleSignTrain(args)
	case "sign_model_info":
		return s.handleSignModelInfo()

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

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes tool arguments; absent arguments decode as zero values.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Color Tuning Handlers ===

type samplePoint struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type signSampleColorArgs struct {
	Path   string        `json:"path"`
	Points []samplePoint `json:"points"`
}

// ClassifiedSample is one sampled pixel and the color classes accepting it.
type ClassifiedSample struct {
	imaging.ColorSample

	// FoldedHue is the hue the color classes compare against.
	FoldedHue float64  `json:"folded_hue"`
	Classes   []string `json:"classes"`
}

// SampleColorResult is the sign_sample_color result.
type SampleColorResult struct {
	Samples []ClassifiedSample `json:"samples"`
}

func (s *Server) handleSignSampleColor(args json.RawMessage) (interface{}, error) {
	var a signSampleColorArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Points) == 0 {
		return nil, errors.New("points must not be empty")
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	points := lo.Map(a.Points, func(p samplePoint, _ int) image.Point { return image.Pt(p.X, p.Y) })
	samples, err := imaging.SampleColors(img, points)
	if err != nil {
		return nil, err
	}

	classes := s.detector.Config().Classes
	return &SampleColorResult{
		Samples: lo.Map(samples, func(sample imaging.ColorSample, _ int) ClassifiedSample {
			h := segment.CorrectHue(sample.HSV.H)
			accepting := lo.Filter(classes, func(c segment.ColorClass, _ int) bool {
				return c.Contains(h, sample.HSV.S)
			})
			return ClassifiedSample{
				ColorSample: sample,
				FoldedHue:   h,
				Classes:     lo.Map(accepting, func(c segment.ColorClass, _ int) string { return c.Name }),
			}
		}),
	}, nil
}

// === Pipeline Stage Handlers ===

type signStageArgs struct {
	Path    string   `json:"path"`
	Classes []string `json:"classes"`
}

// SegmentClass is the sign_segment result for one color class.
type SegmentClass struct {
	Class   string           `json:"class"`
	Pixels  int              `json:"pixels"`
	Regions []segment.Region `json:"regions"`
}

// SegmentResult is the sign_segment result.
type SegmentResult struct {
	Width   int            `json:"width"`
	Height  int            `json:"height"`
	Classes []SegmentClass `json:"classes"`
}

// CirclesClass is the sign_circles result for one color class.
type CirclesClass struct {
	Class   string             `json:"class"`
	Circles []detection.Circle `json:"circles"`
}

// CirclesResult is the sign_circles result.
type CirclesResult struct {
	Width   int            `json:"width"`
	Height  int            `json:"height"`
	Classes []CirclesClass `json:"classes"`
}

// analyze loads the image and runs the model-free stages, keeping only the
// requested classes.
func (s *Server) analyze(a signStageArgs) (image.Image, []pipeline.ClassResult, error) {
	cfg := s.detector.Config()
	for _, name := range a.Classes {
		if _, ok := cfg.Class(name); !ok {
			return nil, nil, fmt.Errorf("unknown color class %q", name)
		}
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, nil, err
	}

	results := s.detector.Analyze(img)
	if len(a.Classes) > 0 {
		results = lo.Filter(results, func(r pipeline.ClassResult, _ int) bool {
			return lo.Contains(a.Classes, r.Class)
		})
	}
	return img, results, nil
}

func (s *Server) handleSignSegment(args json.RawMessage) (interface{}, error) {
	var a signStageArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	img, results, err := s.analyze(a)
	if err != nil {
		return nil, err
	}

	return &SegmentResult{
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		Classes: lo.Map(results, func(r pipeline.ClassResult, _ int) SegmentClass {
			return SegmentClass{Class: r.Class, Pixels: r.Pixels, Regions: r.Regions}
		}),
	}, nil
}

func (s *Server) handleSignCircles(args json.RawMessage) (interface{}, error) {
	var a signStageArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	img, results, err := s.analyze(a)
	if err != nil {
		return nil, err
	}

	return &CirclesResult{
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
		Classes: lo.Map(results, func(r pipeline.ClassResult, _ int) CirclesClass {
			return CirclesClass{Class: r.Class, Circles: r.Circles}
		}),
	}, nil
}

// === Detection Handlers ===

// DetectResult is the detection output for one image.
type DetectResult struct {
	Path       string               `json:"path"`
	Detections []pipeline.Detection `json:"detections"`
	Count      int                  `json:"count"`
}

func (s *Server) handleSignDetect(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	dets, err := s.detector.Detect(img)
	if err != nil {
		return nil, err
	}
	return &DetectResult{Path: a.Path, Detections: dets, Count: len(dets)}, nil
}

type signDetectBatchArgs struct {
	Paths   []string `json:"paths"`
	Workers int      `json:"workers"`
}

// BatchResult is the sign_detect_batch output.
type BatchResult struct {
	Images []DetectResult `json:"images"`
	Total  int            `json:"total"`
}

func (s *Server) handleSignDetectBatch(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a signDetectBatchArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if len(a.Paths) == 0 {
		return nil, errors.New("paths must not be empty")
	}

	// Batch inputs are decoded without being cached.
	imgs := make([]image.Image, len(a.Paths))
	for i, path := range a.Paths {
		img, err := s.cache.Peek(path)
		if err != nil {
			return nil, err
		}
		imgs[i] = img
	}

	results, err := s.detector.DetectBatch(ctx, imgs, a.Workers)
	if err != nil {
		return nil, err
	}

	images := lo.Map(results, func(dets []pipeline.Detection, i int) DetectResult {
		return DetectResult{Path: a.Paths[i], Detections: dets, Count: len(dets)}
	})
	return &BatchResult{
		Images: images,
		Total:  lo.SumBy(images, func(r DetectResult) int { return r.Count }),
	}, nil
}

type signAnnotateArgs struct {
	Path  string `json:"path"`
	Color string `json:"color"`
}

func (s *Server) handleSignAnnotate(args json.RawMessage) (interface{}, error) {
	var a signAnnotateArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Color == "" {
		a.Color = "#DC1414"
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	var circles []detection.Circle
	if s.detector.Model() != nil {
		dets, err := s.detector.Detect(img)
		if err != nil {
			return nil, err
		}
		circles = lo.Map(dets, func(d pipeline.Detection, _ int) detection.Circle { return d.Circle })
	} else {
		circles = lo.FlatMap(s.detector.Analyze(img), func(r pipeline.ClassResult, _ int) []detection.Circle {
			return r.Circles
		})
	}

	return imaging.Annotate(img, circles, a.Color)
}

// === Model Management Handlers ===

// ModelInfo describes the loaded classifier.
type ModelInfo struct {
	Loaded           bool            `json:"loaded"`
	Labels           []string        `json:"labels,omitempty"`
	Descriptor       features.Config `json:"descriptor"`
	DescriptorLength int             `json:"descriptor_length"`
	Gamma            float64         `json:"gamma,omitempty"`
	SupportVectors   int             `json:"support_vectors,omitempty"`
	SavedTo          string          `json:"saved_to,omitempty"`
}

func (s *Server) modelInfo() *ModelInfo {
	descriptor := s.detector.Config().Descriptor
	info := &ModelInfo{Descriptor: descriptor, DescriptorLength: descriptor.Length()}
	if m := s.detector.Model(); m != nil {
		info.Loaded = true
		info.Labels = m.Labels()
		info.Gamma = m.Gamma()
		info.SupportVectors = m.SupportVectors()
	}
	return info
}

type signTrainArgs struct {
	Dir      string `json:"dir"`
	SavePath string `json:"save_path"`
}

func (s *Server) handleSignTrain(args json.RawMessage) (interface{}, error) {
	var a signTrainArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Dir == "" {
		return nil, errors.New("dir is required")
	}

	model, err := training.TrainDir(a.Dir, s.detector.Config().Descriptor, s.trainParams)
	if err != nil {
		return nil, err
	}
	if a.SavePath != "" {
		if err := model.SaveFile(a.SavePath); err != nil {
			return nil, err
		}
	}
	if err := s.detector.SwapModel(model); err != nil {
		return nil, err
	}

	info := s.modelInfo()
	info.SavedTo = a.SavePath
	return info, nil
}

func (s *Server) handleSignModelInfo() (interface{}, error) {
	return s.modelInfo(), nil
}
