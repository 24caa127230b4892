package classifier

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// tau replaces a non-positive curvature in the two-variable update.
const tau = 1e-12

// rbf evaluates exp(-gamma·|a-b|²).
func rbf(a, b []float64, gamma float64) float64 {
	d := floats.Distance(a, b, 2)
	return math.Exp(-gamma * d * d)
}

// autoGamma returns 1 / (nFeatures × variance of every training value), or 1
// when the values do not vary.
func autoGamma(vectors [][]float64) float64 {
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return 1
	}
	all := make([]float64, 0, len(vectors)*len(vectors[0]))
	for _, v := range vectors {
		all = append(all, v...)
	}
	variance := stat.PopVariance(all, nil)
	if variance == 0 || math.IsNaN(variance) {
		return 1
	}
	return 1 / (float64(len(vectors[0])) * variance)
}

// solveSMO solves the binary C-SVC dual
//
//	min ½ αᵀQα - Σα   subject to 0 ≤ α ≤ c, yᵀα = 0
//
// where Q[i][j] = y[i]·y[j]·k[i][j] and y[i] is ±1. Each iteration optimizes
// the maximal violating pair; the loop stops once the violation drops below
// eps or after maxIter updates. It returns the multipliers and the bias rho
// of the decision function Σ y[i]·α[i]·K(x[i], x) - rho.
func solveSMO(k [][]float64, y []float64, c, eps float64, maxIter int) (alpha []float64, rho float64) {
	n := len(y)
	alpha = make([]float64, n)
	grad := make([]float64, n)
	for i := range grad {
		grad[i] = -1
	}

	q := func(i, j int) float64 { return y[i] * y[j] * k[i][j] }

	for iter := 0; iter < maxIter; iter++ {
		i, j, gap := selectPair(alpha, grad, y, c)
		if i < 0 || j < 0 || gap < eps {
			break
		}

		oldI, oldJ := alpha[i], alpha[j]
		if y[i] != y[j] {
			quad := q(i, i) + q(j, j) + 2*q(i, j)
			if quad <= 0 {
				quad = tau
			}
			delta := (-grad[i] - grad[j]) / quad
			diff := alpha[i] - alpha[j]
			alpha[i] += delta
			alpha[j] += delta
			if diff > 0 {
				if alpha[j] < 0 {
					alpha[j] = 0
					alpha[i] = diff
				}
			} else if alpha[i] < 0 {
				alpha[i] = 0
				alpha[j] = -diff
			}
			if diff > 0 {
				if alpha[i] > c {
					alpha[i] = c
					alpha[j] = c - diff
				}
			} else if alpha[j] > c {
				alpha[j] = c
				alpha[i] = c + diff
			}
		} else {
			quad := q(i, i) + q(j, j) - 2*q(i, j)
			if quad <= 0 {
				quad = tau
			}
			delta := (grad[i] - grad[j]) / quad
			sum := alpha[i] + alpha[j]
			alpha[i] -= delta
			alpha[j] += delta
			if sum > c {
				if alpha[i] > c {
					alpha[i] = c
					alpha[j] = sum - c
				}
			} else if alpha[j] < 0 {
				alpha[j] = 0
				alpha[i] = sum
			}
			if sum > c {
				if alpha[j] > c {
					alpha[j] = c
					alpha[i] = sum - c
				}
			} else if alpha[i] < 0 {
				alpha[i] = 0
				alpha[j] = sum
			}
		}

		dI, dJ := alpha[i]-oldI, alpha[j]-oldJ
		for t := 0; t < n; t++ {
			grad[t] += q(t, i)*dI + q(t, j)*dJ
		}
	}

	return alpha, computeRho(alpha, grad, y, c)
}

// selectPair returns the maximal violating pair and its violation gap. i or j
// is -1 when no candidate exists.
func selectPair(alpha, grad, y []float64, c float64) (i, j int, gap float64) {
	gMax, gMin := math.Inf(-1), math.Inf(1)
	i, j = -1, -1
	for t := range y {
		v := -y[t] * grad[t]
		up := (y[t] > 0 && alpha[t] < c) || (y[t] < 0 && alpha[t] > 0)
		low := (y[t] > 0 && alpha[t] > 0) || (y[t] < 0 && alpha[t] < c)
		if up && v > gMax {
			gMax, i = v, t
		}
		if low && v < gMin {
			gMin, j = v, t
		}
	}
	return i, j, gMax - gMin
}

// computeRho averages y·∇ over free multipliers, falling back to the middle
// of the feasible interval when every multiplier sits at a bound.
func computeRho(alpha, grad, y []float64, c float64) float64 {
	ub, lb := math.Inf(1), math.Inf(-1)
	var sumFree float64
	var nFree int
	for t := range y {
		yg := y[t] * grad[t]
		switch {
		case alpha[t] >= c:
			if y[t] < 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		case alpha[t] <= 0:
			if y[t] > 0 {
				ub = math.Min(ub, yg)
			} else {
				lb = math.Max(lb, yg)
			}
		default:
			nFree++
			sumFree += yg
		}
	}
	if nFree > 0 {
		return sumFree / float64(nFree)
	}
	return (ub + lb) / 2
}
