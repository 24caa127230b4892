package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/multierr"

	"github.com/ironsheep/sign-tools-mcp/internal/detection"
	"github.com/ironsheep/sign-tools-mcp/internal/features"
	"github.com/ironsheep/sign-tools-mcp/internal/segment"
)

// Config is the complete detector configuration. It is copied into the
// Detector and never modified afterwards.
type Config struct {
	// Classes are tested in order; detections follow the same order.
	Classes []segment.ColorClass `json:"classes"`

	Hough      detection.HoughConfig `json:"hough"`
	Descriptor features.Config       `json:"descriptor"`
}

// DefaultConfig returns red and blue classes with the default circle search
// and descriptor.
func DefaultConfig() Config {
	return Config{
		Classes:    []segment.ColorClass{segment.Red(), segment.Blue()},
		Hough:      detection.DefaultHoughConfig(),
		Descriptor: features.DefaultConfig(),
	}
}

// Validate reports every problem in the configuration at once.
func (c Config) Validate() error {
	var err error
	if len(c.Classes) == 0 {
		err = multierr.Append(err, fmt.Errorf("no color classes configured"))
	}
	seen := make(map[string]bool, len(c.Classes))
	for _, class := range c.Classes {
		err = multierr.Append(err, class.Validate())
		if seen[class.Name] {
			err = multierr.Append(err, fmt.Errorf("duplicate color class %q", class.Name))
		}
		seen[class.Name] = true
	}
	err = multierr.Append(err, c.Hough.Validate())
	err = multierr.Append(err, c.Descriptor.Validate())
	return err
}

// Class returns the configured class with the given name.
func (c Config) Class(name string) (segment.ColorClass, bool) {
	for _, class := range c.Classes {
		if class.Name == name {
			return class, true
		}
	}
	return segment.ColorClass{}, false
}

// LoadConfig reads a JSON configuration file. Fields the file omits keep
// their DefaultConfig values; a "classes" array replaces the default classes
// as a whole. Unknown fields are rejected.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig is LoadConfig on an in-memory document.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	defaults := cfg.Classes
	cfg.Classes = nil

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Classes == nil {
		cfg.Classes = defaults
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
