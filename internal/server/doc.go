// Package server implements the MCP (Model Context Protocol) server for
// traffic-sign detection tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the sign
// detection pipeline through the MCP protocol, so MCP-compatible clients can
// locate and classify circular traffic signs in images.
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
// Basic Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// Color Tuning:
//   - sign_sample_color: Pixel colors and the classes accepting them
//
// Pipeline Stages (no model needed):
//   - sign_segment: Color masks and connected regions per class
//   - sign_circles: Circle candidates per class
//
// Detection:
//   - sign_detect: Full pipeline on one image
//   - sign_detect_batch: Full pipeline on several images in parallel
//   - sign_annotate: Draw detections onto the image
//
// Model Management:
//   - sign_train: Train and install a model from an exemplar directory
//   - sign_model_info: Describe the installed model
//
// # Image Caching
//
// Decoded images are cached by path in a least-recently-used cache bounded by
// total pixels (WithCachePixels), so several tools can run against the same
// image without re-reading it. sign_detect_batch reads through the cache but
// does not add its inputs to it.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	detector, err := pipeline.NewDetector(pipeline.DefaultConfig(), model)
//	if err != nil {
//	    return err
//	}
//	srv := server.New(detector, server.WithLogger(logger))
//	return srv.Run(ctx)
package server
