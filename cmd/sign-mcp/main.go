package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ironsheep/sign-tools-mcp/internal/classifier"
	"github.com/ironsheep/sign-tools-mcp/internal/legend/tesseract"
	"github.com/ironsheep/sign-tools-mcp/internal/pipeline"
	"github.com/ironsheep/sign-tools-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("sign-tools-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("sign-tools-mcp - MCP server for circular traffic-sign detection")
			fmt.Println()
			fmt.Println("Usage: sign-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  SIGN_MCP_LOG_LEVEL=debug     Log level (debug, info, warn, error)")
			fmt.Println("  SIGN_MCP_CONFIG=<path>       Pipeline configuration JSON file")
			fmt.Println("  SIGN_MCP_MODEL=<path>        Classifier model to load at startup")
			fmt.Println("  SIGN_MCP_OCR_LANG=eng        Read sign legends with Tesseract in this language")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	logger, err := newLogger(os.Getenv("SIGN_MCP_LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "sign-mcp: %v\n", err)
		os.Exit(2)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

// newLogger builds a console logger on stderr; stdout is for MCP protocol.
func newLogger(level string) (*zap.Logger, error) {
	lvl := zap.NewAtomicLevelAt(zap.InfoLevel)
	if level != "" {
		var err error
		if lvl, err = zap.ParseAtomicLevel(level); err != nil {
			return nil, fmt.Errorf("SIGN_MCP_LOG_LEVEL: %w", err)
		}
	}

	cfg := zap.Config{
		Level:    lvl,
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		DisableStacktrace: true,
		OutputPaths:       []string{"stderr"},
		ErrorOutputPaths:  []string{"stderr"},
	}
	return cfg.Build()
}

func run(logger *zap.Logger) error {
	cfg := pipeline.DefaultConfig()
	if path := os.Getenv("SIGN_MCP_CONFIG"); path != "" {
		var err error
		if cfg, err = pipeline.LoadConfig(path); err != nil {
			return err
		}
		logger.Info("loaded pipeline config", zap.String("path", path))
	}

	var model *classifier.Model
	if path := os.Getenv("SIGN_MCP_MODEL"); path != "" {
		var err error
		if model, err = classifier.LoadFile(path, cfg.Descriptor); err != nil {
			return err
		}
	}

	opts := []pipeline.Option{pipeline.WithLogger(logger.Named("pipeline"))}
	if lang := os.Getenv("SIGN_MCP_OCR_LANG"); lang != "" {
		reader := tesseract.NewReader(lang)
		defer reader.Close()
		opts = append(opts, pipeline.WithLegendReader(reader))
	}

	detector, err := pipeline.NewDetector(cfg, model, opts...)
	if err != nil {
		return err
	}

	logger.Debug("sign MCP server starting",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("commit", GitCommit))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(detector,
		server.WithLogger(logger.Named("server")),
		server.WithTrainParams(classifier.DefaultParams()))

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		return nil
	}
}
