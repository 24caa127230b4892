package features

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// normEps keeps block normalization finite on flat blocks.
const normEps = 1e-5

// hysClip is the L2-Hys saturation level.
const hysClip = 0.2

// Vector is one encoded descriptor.
type Vector []float64

// HOG computes the histogram-of-oriented-gradients descriptor of a row-major
// intensity grid of width×height values.
//
// Gradients are central differences with the outermost rows and columns set
// to zero. Each pixel adds its gradient magnitude to the unsigned orientation
// bin containing its angle; cell histograms are divided by the cell area.
// Blocks slide one cell at a time and are normalized independently. Values
// are ordered by block row, block column, cell row, cell column and
// orientation.
//
// Pixels beyond the last whole cell are ignored. For a width×height grid
// equal to CanonicalSize² the result has cfg.Length() values.
func HOG(gray []float64, width, height int, cfg Config) Vector {
	cellsX, cellsY := width/cfg.CellSize, height/cfg.CellSize
	hist := cellHistograms(gray, width, height, cellsX, cellsY, cfg)

	bx, by := cellsX-cfg.BlockSize+1, cellsY-cfg.BlockSize+1
	if bx < 1 || by < 1 {
		return Vector{}
	}

	blockLen := cfg.BlockSize * cfg.BlockSize * cfg.Orientations
	out := make(Vector, 0, bx*by*blockLen)
	block := make([]float64, blockLen)

	for r := 0; r < by; r++ {
		for c := 0; c < bx; c++ {
			i := 0
			for cr := 0; cr < cfg.BlockSize; cr++ {
				for cc := 0; cc < cfg.BlockSize; cc++ {
					cell := ((r+cr)*cellsX + (c + cc)) * cfg.Orientations
					i += copy(block[i:], hist[cell:cell+cfg.Orientations])
				}
			}
			normalizeBlock(block, cfg.BlockNorm)
			out = append(out, block...)
		}
	}
	return out
}

// cellHistograms returns cellsY×cellsX histograms of cfg.Orientations bins,
// row-major by cell.
func cellHistograms(gray []float64, width, height, cellsX, cellsY int, cfg Config) []float64 {
	hist := make([]float64, cellsX*cellsY*cfg.Orientations)
	binWidth := 180.0 / float64(cfg.Orientations)
	area := float64(cfg.CellSize * cfg.CellSize)

	for y := 0; y < cellsY*cfg.CellSize; y++ {
		for x := 0; x < cellsX*cfg.CellSize; x++ {
			var gx, gy float64
			if x > 0 && x < width-1 {
				gx = gray[y*width+x+1] - gray[y*width+x-1]
			}
			if y > 0 && y < height-1 {
				gy = gray[(y+1)*width+x] - gray[(y-1)*width+x]
			}
			mag := math.Hypot(gx, gy)
			if mag == 0 {
				continue
			}

			angle := math.Atan2(gy, gx) * 180 / math.Pi
			if angle < 0 {
				angle += 180
			}
			if angle >= 180 {
				angle -= 180
			}
			bin := min(int(angle/binWidth), cfg.Orientations-1)

			cell := (y/cfg.CellSize)*cellsX + x/cfg.CellSize
			hist[cell*cfg.Orientations+bin] += mag / area
		}
	}
	return hist
}

// normalizeBlock normalizes v in place.
func normalizeBlock(v []float64, method string) {
	switch method {
	case NormL1:
		floats.Scale(1/(floats.Norm(v, 1)+normEps), v)
	case NormL1Sqrt:
		floats.Scale(1/(floats.Norm(v, 1)+normEps), v)
		for i := range v {
			v[i] = math.Sqrt(v[i])
		}
	case NormL2:
		floats.Scale(1/math.Hypot(floats.Norm(v, 2), normEps), v)
	default:
		floats.Scale(1/math.Hypot(floats.Norm(v, 2), normEps), v)
		for i := range v {
			v[i] = min(v[i], hysClip)
		}
		floats.Scale(1/math.Hypot(floats.Norm(v, 2), normEps), v)
	}
}
