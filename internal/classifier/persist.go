package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/ironsheep/sign-tools-mcp/internal/features"
)

const (
	modelFormat  = "sign-svm"
	modelVersion = 1
)

// modelFile is the persisted form of a Model. Floats are written in Go's
// shortest round-trip representation, so a reloaded model classifies
// bit-identically.
type modelFile struct {
	Format         string          `json:"format"`
	Version        int             `json:"version"`
	Descriptor     features.Config `json:"descriptor"`
	Labels         []string        `json:"labels"`
	Gamma          float64         `json:"gamma"`
	SupportVectors [][]float64     `json:"support_vectors"`
	Machines       []machineFile   `json:"machines"`
}

type machineFile struct {
	Positive int       `json:"positive"`
	Negative int       `json:"negative"`
	Support  []int     `json:"support"`
	Coef     []float64 `json:"coef"`
	Rho      float64   `json:"rho"`
}

// Save writes the model as JSON.
func (m *Model) Save(w io.Writer) error {
	f := modelFile{
		Format:         modelFormat,
		Version:        modelVersion,
		Descriptor:     m.descriptor,
		Labels:         m.labels,
		Gamma:          m.gamma,
		SupportVectors: m.vectors,
		Machines:       make([]machineFile, len(m.machines)),
	}
	for i, mc := range m.machines {
		f.Machines[i] = machineFile{
			Positive: mc.positive,
			Negative: mc.negative,
			Support:  mc.support,
			Coef:     mc.coef,
			Rho:      mc.rho,
		}
	}

	if err := json.NewEncoder(w).Encode(f); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return nil
}

// SaveFile writes the model to path, replacing any existing file.
func (m *Model) SaveFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create model file: %w", err)
	}
	if err := m.Save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Load reads a model written by Save and checks it against the live
// descriptor configuration. A model trained with any other configuration is
// rejected with ErrModelConfigMismatch before it can classify anything.
func Load(r io.Reader, live features.Config) (*Model, error) {
	var f modelFile
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if f.Format != modelFormat {
		return nil, fmt.Errorf("unsupported model format %q", f.Format)
	}
	if f.Version != modelVersion {
		return nil, fmt.Errorf("unsupported model version %d", f.Version)
	}
	if f.Descriptor != live {
		return nil, fmt.Errorf("%w: model has %v, live %v", ErrModelConfigMismatch, f.Descriptor, live)
	}
	if err := f.check(); err != nil {
		return nil, fmt.Errorf("malformed model: %w", err)
	}

	m := &Model{
		descriptor: f.Descriptor,
		labels:     f.Labels,
		gamma:      f.Gamma,
		vectors:    f.SupportVectors,
		machines:   make([]machine, len(f.Machines)),
	}
	for i, mf := range f.Machines {
		m.machines[i] = machine{
			positive: mf.Positive,
			negative: mf.Negative,
			support:  mf.Support,
			coef:     mf.Coef,
			rho:      mf.Rho,
		}
	}
	return m, nil
}

// LoadFile opens path and calls Load.
func LoadFile(path string, live features.Config) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model file: %w", err)
	}
	defer f.Close()
	return Load(f, live)
}

// check validates the structure a Model relies on when classifying.
func (f *modelFile) check() error {
	if err := f.Descriptor.Validate(); err != nil {
		return err
	}
	if len(f.Labels) == 0 {
		return errors.New("no labels")
	}
	seen := make(map[string]bool, len(f.Labels))
	for _, l := range f.Labels {
		if l == "" || seen[l] {
			return fmt.Errorf("empty or duplicate label %q", l)
		}
		seen[l] = true
	}
	if f.Gamma <= 0 || math.IsInf(f.Gamma, 0) || math.IsNaN(f.Gamma) {
		return fmt.Errorf("invalid gamma %g", f.Gamma)
	}

	k := len(f.Labels)
	if len(f.Machines) != k*(k-1)/2 {
		return fmt.Errorf("%d labels need %d machines, found %d", k, k*(k-1)/2, len(f.Machines))
	}

	want := f.Descriptor.Length()
	for i, sv := range f.SupportVectors {
		if len(sv) != want {
			return fmt.Errorf("support vector %d: %w: got %d values, want %d",
				i, ErrFeatureDimensionMismatch, len(sv), want)
		}
	}

	for i, mf := range f.Machines {
		if mf.Positive < 0 || mf.Positive >= k || mf.Negative < 0 || mf.Negative >= k || mf.Positive == mf.Negative {
			return fmt.Errorf("machine %d: invalid label pair (%d, %d)", i, mf.Positive, mf.Negative)
		}
		if len(mf.Support) != len(mf.Coef) {
			return fmt.Errorf("machine %d: %d support indices but %d coefficients", i, len(mf.Support), len(mf.Coef))
		}
		for _, s := range mf.Support {
			if s < 0 || s >= len(f.SupportVectors) {
				return fmt.Errorf("machine %d: support index %d out of range", i, s)
			}
		}
	}
	return nil
}
