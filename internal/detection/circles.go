package detection

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"go.uber.org/multierr"

	"github.com/ironsheep/sign-tools-mcp/internal/segment"
)

// Circle is a circular sign candidate found in a mask.
type Circle struct {
	// X and Y are the center in pixel coordinates.
	X int `json:"x"`
	Y int `json:"y"`

	// Radius is the circle radius in pixels, within the configured range.
	Radius int `json:"radius"`

	// Score is the fraction of the circle's perimeter that lies on the mask
	// boundary (0.0 to 1.0).
	Score float64 `json:"score"`

	// Class is the color class whose mask produced the circle.
	Class string `json:"class"`
}

// HoughConfig controls the circle search.
type HoughConfig struct {
	// RadiusMin and RadiusMax bound the searched radii, both inclusive.
	RadiusMin int `json:"radius_min"`
	RadiusMax int `json:"radius_max"`

	// MaxCandidates caps the number of circles returned per mask.
	MaxCandidates int `json:"max_candidates"`

	// DedupFraction drops a candidate whose center is closer than
	// DedupFraction × the smaller radius to a better one.
	DedupFraction float64 `json:"dedup_fraction"`

	// Threshold keeps only cells scoring at least Threshold × the best score.
	Threshold float64 `json:"threshold"`

	// MinScore is an absolute floor below which cells are never candidates.
	MinScore float64 `json:"min_score"`
}

// DefaultHoughConfig returns the search used for street-level photos.
func DefaultHoughConfig() HoughConfig {
	return HoughConfig{
		RadiusMin:     10,
		RadiusMax:     30,
		MaxCandidates: 3,
		DedupFraction: 1.0,
		Threshold:     0.5,
		MinScore:      0.3,
	}
}

// Validate reports every invalid field.
func (c HoughConfig) Validate() error {
	var err error
	if c.RadiusMin < 1 {
		err = multierr.Append(err, fmt.Errorf("radius_min must be >= 1, got %d", c.RadiusMin))
	}
	if c.RadiusMax < c.RadiusMin {
		err = multierr.Append(err, fmt.Errorf("radius_max %d below radius_min %d", c.RadiusMax, c.RadiusMin))
	}
	if c.MaxCandidates < 1 {
		err = multierr.Append(err, fmt.Errorf("max_candidates must be >= 1, got %d", c.MaxCandidates))
	}
	if c.DedupFraction < 0 {
		err = multierr.Append(err, errors.New("dedup_fraction must not be negative"))
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		err = multierr.Append(err, fmt.Errorf("threshold %g outside [0,1]", c.Threshold))
	}
	if c.MinScore < 0 || c.MinScore > 1 {
		err = multierr.Append(err, fmt.Errorf("min_score %g outside [0,1]", c.MinScore))
	}
	return err
}

// FindCircles locates the best-scoring circles in a mask.
//
// # Algorithm (Hough circle transform on the mask rim)
//
//  1. Rim extraction: only boundary pixels of the mask vote, so filled
//     regions and drawn outlines behave the same.
//  2. Accumulator voting: for each radius, every rim pixel votes for all
//     centers whose midpoint-circle perimeter passes through it.
//  3. Scoring: votes are divided by the perimeter length, giving the
//     fraction of the circle covered by the rim.
//  4. Filtering: cells below max(MinScore, Threshold × best) are dropped.
//  5. Ordering: score descending, then smaller radius, then x, then y.
//  6. Duplicate removal: greedy in that order using DedupFraction.
//
// An empty mask yields an empty, non-nil slice.
func FindCircles(mask *segment.Mask, cfg HoughConfig, class string) []Circle {
	circles := make([]Circle, 0)
	if cfg.RadiusMin < 1 || cfg.RadiusMax < cfg.RadiusMin || cfg.MaxCandidates < 1 {
		return circles
	}

	rim := rimPoints(mask)
	if len(rim) == 0 {
		return circles
	}

	width, height := mask.Width, mask.Height
	accumulator := make([]int32, width*height)
	best := 0.0

	for radius := cfg.RadiusMin; radius <= cfg.RadiusMax; radius++ {
		perimeter := CirclePerimeter(radius)
		for i := range accumulator {
			accumulator[i] = 0
		}

		for _, p := range rim {
			for _, o := range perimeter {
				cx, cy := p.X-o.X, p.Y-o.Y
				if cx >= 0 && cx < width && cy >= 0 && cy < height {
					accumulator[cy*width+cx]++
				}
			}
		}

		n := float64(len(perimeter))
		for i, votes := range accumulator {
			if votes == 0 {
				continue
			}
			score := float64(votes) / n
			if score < cfg.MinScore {
				continue
			}
			if score > best {
				best = score
			}
			circles = append(circles, Circle{
				X:      i % width,
				Y:      i / width,
				Radius: radius,
				Score:  score,
				Class:  class,
			})
		}
	}

	cutoff := cfg.Threshold * best
	kept := circles[:0]
	for _, c := range circles {
		if c.Score >= cutoff {
			kept = append(kept, c)
		}
	}

	SortCircles(kept)
	return dedupCircles(kept, cfg.DedupFraction, cfg.MaxCandidates)
}

// SortCircles orders circles by descending score, then ascending radius,
// then ascending x and y.
func SortCircles(circles []Circle) {
	sort.SliceStable(circles, func(i, j int) bool {
		a, b := circles[i], circles[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Radius != b.Radius {
			return a.Radius < b.Radius
		}
		if a.X != b.X {
			return a.X < b.X
		}
		return a.Y < b.Y
	})
}

// dedupCircles keeps a circle only when no better circle has its center
// within fraction × the smaller radius. Input must already be sorted.
func dedupCircles(circles []Circle, fraction float64, limit int) []Circle {
	filtered := make([]Circle, 0, limit)
	for _, c := range circles {
		if len(filtered) == limit {
			break
		}
		isDuplicate := false
		for _, f := range filtered {
			dx := float64(c.X - f.X)
			dy := float64(c.Y - f.Y)
			minR := float64(min(c.Radius, f.Radius))
			if dx*dx+dy*dy < (fraction*minR)*(fraction*minR) {
				isDuplicate = true
				break
			}
		}
		if !isDuplicate {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// rimPoints lists the mask's boundary pixels in raster order.
func rimPoints(mask *segment.Mask) []image.Point {
	rim := mask.Boundary()
	points := make([]image.Point, 0)
	for y := 0; y < rim.Height; y++ {
		for x := 0; x < rim.Width; x++ {
			if rim.Pix[y*rim.Width+x] {
				points = append(points, image.Point{X: x, Y: y})
			}
		}
	}
	return points
}
