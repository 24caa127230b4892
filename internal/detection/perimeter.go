package detection

import (
	"image"
	"sort"
)

// CirclePerimeter returns the unique offsets of a midpoint-circle outline of
// the given radius, relative to the center, sorted by (y, x).
//
// Radius 0 yields the single offset (0, 0).
func CirclePerimeter(radius int) []image.Point {
	if radius <= 0 {
		return []image.Point{{}}
	}

	seen := make(map[image.Point]struct{}, 8*radius)
	add := func(x, y int) {
		seen[image.Point{X: x, Y: y}] = struct{}{}
	}

	x := radius
	y := 0
	err := 0
	for x >= y {
		add(x, y)
		add(y, x)
		add(-y, x)
		add(-x, y)
		add(-x, -y)
		add(-y, -x)
		add(y, -x)
		add(x, -y)

		if err <= 0 {
			y++
			err += 2*y + 1
		}
		if err > 0 {
			x--
			err -= 2*x + 1
		}
	}

	points := make([]image.Point, 0, len(seen))
	for p := range seen {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Y != points[j].Y {
			return points[i].Y < points[j].Y
		}
		return points[i].X < points[j].X
	})
	return points
}
