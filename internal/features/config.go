package features

import (
	"fmt"

	"go.uber.org/multierr"
)

// Block normalization schemes accepted by Config.BlockNorm.
const (
	NormL1     = "L1"
	NormL1Sqrt = "L1-sqrt"
	NormL2     = "L2"
	NormL2Hys  = "L2-Hys"
)

// Config is the descriptor configuration. It is recorded in every trained
// model, and two configurations are compatible only when they are equal.
type Config struct {
	// CanonicalSize is the side, in pixels, crops are resized to.
	CanonicalSize int `json:"canonical_size"`

	// Orientations is the number of unsigned orientation bins over [0,180).
	Orientations int `json:"orientations"`

	// CellSize is the side of one histogram cell in pixels.
	CellSize int `json:"cell_size"`

	// BlockSize is the side of one normalization block in cells.
	BlockSize int `json:"block_size"`

	// BlockNorm is one of NormL1, NormL1Sqrt, NormL2 or NormL2Hys.
	BlockNorm string `json:"block_norm"`
}

// DefaultConfig returns 48px crops with 8 orientations, 3px cells, 1-cell
// blocks and L2-Hys normalization.
func DefaultConfig() Config {
	return Config{
		CanonicalSize: 48,
		Orientations:  8,
		CellSize:      3,
		BlockSize:     1,
		BlockNorm:     NormL2Hys,
	}
}

// Validate reports every field that would make the descriptor empty or
// undefined.
func (c Config) Validate() error {
	var err error
	if c.CanonicalSize < 1 {
		err = multierr.Append(err, fmt.Errorf("canonical size must be positive, got %d", c.CanonicalSize))
	}
	if c.Orientations < 1 {
		err = multierr.Append(err, fmt.Errorf("orientations must be positive, got %d", c.Orientations))
	}
	if c.CellSize < 1 {
		err = multierr.Append(err, fmt.Errorf("cell size must be positive, got %d", c.CellSize))
	}
	if c.BlockSize < 1 {
		err = multierr.Append(err, fmt.Errorf("block size must be positive, got %d", c.BlockSize))
	}
	if c.CanonicalSize >= 1 && c.CellSize >= 1 && c.BlockSize >= 1 && c.CanonicalSize/c.CellSize < c.BlockSize {
		err = multierr.Append(err, fmt.Errorf("block of %d cells does not fit %dpx crop with %dpx cells",
			c.BlockSize, c.CanonicalSize, c.CellSize))
	}
	switch c.BlockNorm {
	case NormL1, NormL1Sqrt, NormL2, NormL2Hys:
	default:
		err = multierr.Append(err, fmt.Errorf("unknown block norm %q", c.BlockNorm))
	}
	return err
}

// blocks returns the number of block positions along one axis.
func (c Config) blocks() int {
	return c.CanonicalSize/c.CellSize - c.BlockSize + 1
}

// Length is the number of values in every descriptor produced with c.
func (c Config) Length() int {
	nb := c.blocks()
	if nb < 1 {
		return 0
	}
	return nb * nb * c.BlockSize * c.BlockSize * c.Orientations
}

func (c Config) String() string {
	return fmt.Sprintf("hog(size=%d, orientations=%d, cell=%d, block=%d, norm=%s)",
		c.CanonicalSize, c.Orientations, c.CellSize, c.BlockSize, c.BlockNorm)
}
