package segment

import "image"

// Region is one 8-connected component of a mask.
type Region struct {
	ID        int             `json:"id"` // 1-based, in raster order of the first pixel
	Area      int             `json:"area"`
	CentroidX float64         `json:"centroid_x"`
	CentroidY float64         `json:"centroid_y"`
	Bounds    image.Rectangle `json:"bounds"` // Max is exclusive
}

// Label finds the connected components of a mask.
func Label(m *Mask) []Region {
	_, regions := components(m)
	return regions
}

// components returns a per-pixel label grid (0 = background) and the regions
// it describes. Region i has label i+1.
func components(m *Mask) ([]int, []Region) {
	labels := make([]int, len(m.Pix))
	regions := make([]Region, 0)
	stack := make([]image.Point, 0, 64)

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			i := y*m.Width + x
			if !m.Pix[i] || labels[i] != 0 {
				continue
			}

			id := len(regions) + 1
			region := Region{ID: id, Bounds: image.Rect(x, y, x+1, y+1)}
			var sumX, sumY float64

			labels[i] = id
			stack = append(stack[:0], image.Point{X: x, Y: y})
			for len(stack) > 0 {
				p := stack[len(stack)-1]
				stack = stack[:len(stack)-1]

				region.Area++
				sumX += float64(p.X)
				sumY += float64(p.Y)
				region.Bounds = region.Bounds.Union(image.Rect(p.X, p.Y, p.X+1, p.Y+1))

				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						if dx == 0 && dy == 0 {
							continue
						}
						nx, ny := p.X+dx, p.Y+dy
						if !m.In(nx, ny) {
							continue
						}
						j := ny*m.Width + nx
						if m.Pix[j] && labels[j] == 0 {
							labels[j] = id
							stack = append(stack, image.Point{X: nx, Y: ny})
						}
					}
				}
			}

			region.CentroidX = sumX / float64(region.Area)
			region.CentroidY = sumY / float64(region.Area)
			regions = append(regions, region)
		}
	}
	return labels, regions
}
