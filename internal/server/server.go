package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/ironsheep/sign-tools-mcp/internal/classifier"
	"github.com/ironsheep/sign-tools-mcp/internal/imaging"
	"github.com/ironsheep/sign-tools-mcp/internal/pipeline"
)

// Version is reported in the initialize handshake.
const Version = "0.1.0"

// Server handles MCP protocol communication
type Server struct {
	cache       *imaging.ImageCache
	detector    *pipeline.Detector
	trainParams classifier.Params
	logger      *zap.Logger
	in          io.Reader
	out         io.Writer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithIO replaces stdin and stdout, mainly for tests.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(s *Server) {
		s.in = in
		s.out = out
	}
}

// WithCachePixels bounds the decoded image cache by total pixel count.
func WithCachePixels(n int) Option {
	return func(s *Server) {
		s.cache = imaging.NewImageCache(n)
	}
}

// WithTrainParams sets the SVM parameters used by sign_train.
func WithTrainParams(p classifier.Params) Option {
	return func(s *Server) {
		s.trainParams = p
	}
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a server that answers sign_* tools with detector.
func New(detector *pipeline.Detector, opts ...Option) *Server {
	s := &Server{
		cache:       imaging.NewImageCache(0),
		detector:    detector,
		trainParams: classifier.DefaultParams(),
		logger:      zap.NewNop(),
		in:          os.Stdin,
		out:         os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run reads requests line by line until the input closes. ctx is passed to
// tool calls; cancelling it aborts batch work in progress.
func (s *Server) Run(ctx context.Context) error {
	scanner := bufio.NewScanner(s.in)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(s.out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("failed to parse request", zap.Error(err))
			continue
		}

		resp := s.handleRequest(ctx, &req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.Error("failed to encode response", zap.String("method", req.Method), zap.Error(err))
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(ctx context.Context, req *MCPRequest) *MCPResponse {
	s.logger.Debug("request", zap.String("method", req.Method), zap.Any("id", req.ID))

	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "sign-tools-mcp",
				"version": Version,
			},
		},
	}
}

