package classifier

import (
	"errors"
	"fmt"
	"math"

	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/ironsheep/sign-tools-mcp/internal/features"
)

var (
	// ErrFeatureDimensionMismatch is returned when a vector's length differs
	// from the descriptor length recorded in the model.
	ErrFeatureDimensionMismatch = errors.New("feature dimension mismatch")

	// ErrModelConfigMismatch is returned when a persisted model was trained
	// with a descriptor configuration other than the live one.
	ErrModelConfigMismatch = errors.New("model descriptor configuration mismatch")
)

// Example is one labeled training vector.
type Example struct {
	Label  string
	Vector features.Vector
}

// Params are the SVM hyperparameters.
type Params struct {
	// C is the soft-margin penalty.
	C float64 `json:"c"`

	// Gamma is the RBF width. Zero selects 1 / (nFeatures × variance).
	Gamma float64 `json:"gamma"`

	// Tolerance is the stopping threshold on the maximal KKT violation.
	Tolerance float64 `json:"tolerance"`

	// MaxIter caps solver updates per machine. Zero selects
	// max(10000000, 100 × examples).
	MaxIter int `json:"max_iter"`
}

// DefaultParams returns C = 1, automatic gamma and tolerance 1e-3.
func DefaultParams() Params {
	return Params{C: 1, Tolerance: 1e-3}
}

// Validate reports every out-of-range parameter.
func (p Params) Validate() error {
	var err error
	if p.C <= 0 {
		err = multierr.Append(err, fmt.Errorf("C must be positive, got %g", p.C))
	}
	if p.Gamma < 0 {
		err = multierr.Append(err, fmt.Errorf("gamma must not be negative, got %g", p.Gamma))
	}
	if p.Tolerance <= 0 {
		err = multierr.Append(err, fmt.Errorf("tolerance must be positive, got %g", p.Tolerance))
	}
	if p.MaxIter < 0 {
		err = multierr.Append(err, fmt.Errorf("max iterations must not be negative, got %d", p.MaxIter))
	}
	return err
}

// machine is one pairwise decision function
// Σ coef[k]·K(vectors[support[k]], x) - rho; positive values vote for
// labels[positive].
type machine struct {
	positive, negative int
	support            []int
	coef               []float64
	rho                float64
}

// Model is a trained multi-class SVM together with the descriptor
// configuration its vectors came from. It is never modified after Fit or Load.
type Model struct {
	descriptor features.Config
	labels     []string
	gamma      float64
	vectors    [][]float64
	machines   []machine
}

// Fit trains a one-vs-one RBF SVM over examples. Label order is the order of
// first appearance. Every vector must have cfg.Length() values.
//
// A single distinct label yields a model that always predicts it with
// confidence 1.
func Fit(examples []Example, cfg features.Config, params Params) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid descriptor config: %w", err)
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if len(examples) == 0 {
		return nil, errors.New("no training examples")
	}

	want := cfg.Length()
	for i, ex := range examples {
		if ex.Label == "" {
			return nil, fmt.Errorf("example %d has an empty label", i)
		}
		if len(ex.Vector) != want {
			return nil, fmt.Errorf("example %d (%s): %w: got %d values, want %d",
				i, ex.Label, ErrFeatureDimensionMismatch, len(ex.Vector), want)
		}
	}

	labels := lo.Uniq(lo.Map(examples, func(ex Example, _ int) string { return ex.Label }))
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	vectors := lo.Map(examples, func(ex Example, _ int) []float64 { return ex.Vector })

	gamma := params.Gamma
	if gamma == 0 {
		gamma = autoGamma(vectors)
	}
	maxIter := params.MaxIter
	if maxIter == 0 {
		maxIter = max(10000000, 100*len(examples))
	}

	kernel := make([][]float64, len(vectors))
	for i := range vectors {
		kernel[i] = make([]float64, len(vectors))
		for j := 0; j <= i; j++ {
			kernel[i][j] = rbf(vectors[i], vectors[j], gamma)
			kernel[j][i] = kernel[i][j]
		}
	}

	// used maps a training index to its position in the support vector list.
	used := make(map[int]int)
	var support [][]float64
	var machines []machine

	for p := 0; p < len(labels); p++ {
		for n := p + 1; n < len(labels); n++ {
			var members []int
			var y []float64
			for i, ex := range examples {
				switch index[ex.Label] {
				case p:
					members = append(members, i)
					y = append(y, 1)
				case n:
					members = append(members, i)
					y = append(y, -1)
				}
			}

			sub := make([][]float64, len(members))
			for a, i := range members {
				sub[a] = make([]float64, len(members))
				for b, j := range members {
					sub[a][b] = kernel[i][j]
				}
			}

			alpha, rho := solveSMO(sub, y, params.C, params.Tolerance, maxIter)

			m := machine{positive: p, negative: n, rho: rho}
			for a, i := range members {
				if alpha[a] <= 0 {
					continue
				}
				sv, ok := used[i]
				if !ok {
					sv = len(support)
					used[i] = sv
					support = append(support, append([]float64(nil), vectors[i]...))
				}
				m.support = append(m.support, sv)
				m.coef = append(m.coef, y[a]*alpha[a])
			}
			machines = append(machines, m)
		}
	}

	return &Model{
		descriptor: cfg,
		labels:     labels,
		gamma:      gamma,
		vectors:    support,
		machines:   machines,
	}, nil
}

// Labels returns the training labels in model order.
func (m *Model) Labels() []string {
	return append([]string(nil), m.labels...)
}

// Descriptor returns the descriptor configuration recorded at training time.
func (m *Model) Descriptor() features.Config {
	return m.descriptor
}

// Gamma returns the RBF kernel width.
func (m *Model) Gamma() float64 {
	return m.gamma
}

// SupportVectors returns the number of distinct support vectors.
func (m *Model) SupportVectors() int {
	return len(m.vectors)
}

// Classify predicts the label of v.
//
// Confidence is the mean logistic of the winner's signed margins over its
// pairwise contests, in (0,1); a single-label model answers with 1.
func (m *Model) Classify(v features.Vector) (label string, confidence float64, err error) {
	if want := m.descriptor.Length(); len(v) != want {
		return "", 0, fmt.Errorf("%w: got %d values, want %d", ErrFeatureDimensionMismatch, len(v), want)
	}
	if len(m.labels) == 1 {
		return m.labels[0], 1, nil
	}

	kv := make([]float64, len(m.vectors))
	for i, sv := range m.vectors {
		kv[i] = rbf(sv, v, m.gamma)
	}

	votes := make([]int, len(m.labels))
	margins := make([]float64, len(m.labels))
	decisions := make([]float64, len(m.machines))
	for i, mc := range m.machines {
		dec := -mc.rho
		for k, sv := range mc.support {
			dec += mc.coef[k] * kv[sv]
		}
		decisions[i] = dec
		if dec > 0 {
			votes[mc.positive]++
		} else {
			votes[mc.negative]++
		}
		margins[mc.positive] += dec
		margins[mc.negative] -= dec
	}

	winner := 0
	for i := 1; i < len(m.labels); i++ {
		if votes[i] > votes[winner] || (votes[i] == votes[winner] && margins[i] > margins[winner]) {
			winner = i
		}
	}

	var sum float64
	var contests int
	for i, mc := range m.machines {
		switch winner {
		case mc.positive:
			sum += logistic(decisions[i])
		case mc.negative:
			sum += logistic(-decisions[i])
		default:
			continue
		}
		contests++
	}

	return m.labels[winner], sum / float64(contests), nil
}

func logistic(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
