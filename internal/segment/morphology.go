package segment

import "image"

// Clean removes components smaller than minArea and then closes the result
// with a disk of the given radius.
//
// Every surviving component already has at least minArea pixels and closing
// only adds pixels, so Clean(Clean(m, a, r), a, r) equals Clean(m, a, r).
func Clean(m *Mask, minArea, closingRadius int) *Mask {
	return Close(RemoveSmallObjects(m, minArea), closingRadius)
}

// RemoveSmallObjects drops 8-connected components with fewer than minArea pixels.
func RemoveSmallObjects(m *Mask, minArea int) *Mask {
	if minArea <= 1 {
		return m.Clone()
	}
	labels, regions := components(m)
	out := NewMask(m.Width, m.Height)
	for i, l := range labels {
		if l != 0 && regions[l-1].Area >= minArea {
			out.Pix[i] = true
		}
	}
	return out
}

// Close applies a dilation followed by an erosion with a disk of the given radius.
func Close(m *Mask, radius int) *Mask {
	if radius <= 0 {
		return m.Clone()
	}
	disk := Disk(radius)
	return erode(dilate(m, disk), disk)
}

// Disk returns the offsets of a disk structuring element: every (dx, dy) with
// dx²+dy² <= radius².
func Disk(radius int) []image.Point {
	offsets := make([]image.Point, 0, (2*radius+1)*(2*radius+1))
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			if dx*dx+dy*dy <= radius*radius {
				offsets = append(offsets, image.Point{X: dx, Y: dy})
			}
		}
	}
	return offsets
}

// dilate grows the mask by disk. Pixels outside the mask count as false.
func dilate(m *Mask, disk []image.Point) *Mask {
	out := NewMask(m.Width, m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if !m.Pix[y*m.Width+x] {
				continue
			}
			for _, o := range disk {
				out.Set(x+o.X, y+o.Y, true)
			}
		}
	}
	return out
}

// erode shrinks the mask by disk. Pixels outside the mask count as true, so
// regions touching the border are not eaten from the outside.
func erode(m *Mask, disk []image.Point) *Mask {
	out := NewMask(m.Width, m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			keep := m.Pix[y*m.Width+x]
			for _, o := range disk {
				if !keep {
					break
				}
				nx, ny := x+o.X, y+o.Y
				if m.In(nx, ny) && !m.Pix[ny*m.Width+nx] {
					keep = false
				}
			}
			out.Pix[y*m.Width+x] = keep
		}
	}
	return out
}
