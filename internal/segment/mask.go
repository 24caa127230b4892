package segment

// Mask is a binary image with the same dimensions as the image it was derived
// from. Pixels are stored row-major in Pix.
type Mask struct {
	Width  int
	Height int
	Pix    []bool
}

// NewMask allocates an all-false mask.
func NewMask(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{
		Width:  width,
		Height: height,
		Pix:    make([]bool, width*height),
	}
}

// In reports whether (x, y) lies inside the mask.
func (m *Mask) In(x, y int) bool {
	return x >= 0 && y >= 0 && x < m.Width && y < m.Height
}

// At returns the pixel at (x, y). Coordinates outside the mask read as false.
func (m *Mask) At(x, y int) bool {
	if !m.In(x, y) {
		return false
	}
	return m.Pix[y*m.Width+x]
}

// Set writes the pixel at (x, y). Writes outside the mask are ignored.
func (m *Mask) Set(x, y int, v bool) {
	if !m.In(x, y) {
		return
	}
	m.Pix[y*m.Width+x] = v
}

// Count returns the number of true pixels.
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (m *Mask) Clone() *Mask {
	c := &Mask{Width: m.Width, Height: m.Height, Pix: make([]bool, len(m.Pix))}
	copy(c.Pix, m.Pix)
	return c
}

// Equal reports whether both masks have the same size and pixels.
func (m *Mask) Equal(o *Mask) bool {
	if m.Width != o.Width || m.Height != o.Height {
		return false
	}
	for i := range m.Pix {
		if m.Pix[i] != o.Pix[i] {
			return false
		}
	}
	return true
}

// Boundary returns the mask's rim: true pixels with at least one 4-neighbour
// that is false or outside the mask.
func (m *Mask) Boundary() *Mask {
	out := NewMask(m.Width, m.Height)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if !m.Pix[y*m.Width+x] {
				continue
			}
			if !m.At(x-1, y) || !m.At(x+1, y) || !m.At(x, y-1) || !m.At(x, y+1) {
				out.Pix[y*m.Width+x] = true
			}
		}
	}
	return out
}
