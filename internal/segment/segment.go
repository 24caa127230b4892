package segment

import (
	"errors"
	"fmt"
	"image"

	"go.uber.org/multierr"
)

// ColorClass describes one sign color to segment.
//
// HueMin and HueMax bound the (corrected) hue window, both inclusive. When
// HueMin > HueMax the window wraps through 0.
type ColorClass struct {
	Name          string  `json:"name"`
	HueMin        float64 `json:"hue_min"`
	HueMax        float64 `json:"hue_max"`
	MinSaturation float64 `json:"min_saturation"`
	MinArea       int     `json:"min_area"`
	ClosingRadius int     `json:"closing_radius"`
}

// Red is the default red class: hue [0, 0.05] after correction, saturation >= 0.3.
func Red() ColorClass {
	return ColorClass{Name: "red", HueMin: 0, HueMax: 0.05, MinSaturation: 0.3, MinArea: 64, ClosingRadius: 3}
}

// Blue is the default blue class: hue [0.55, 0.65], saturation >= 0.4.
func Blue() ColorClass {
	return ColorClass{Name: "blue", HueMin: 0.55, HueMax: 0.65, MinSaturation: 0.4, MinArea: 64, ClosingRadius: 3}
}

// Validate checks the class for values that cannot select anything sensible.
func (c ColorClass) Validate() error {
	var err error
	if c.Name == "" {
		err = multierr.Append(err, errors.New("color class name is empty"))
	}
	if c.HueMin < 0 || c.HueMin >= 1 || c.HueMax < 0 || c.HueMax >= 1 {
		err = multierr.Append(err, fmt.Errorf("color class %q: hue window [%g, %g] outside [0,1)", c.Name, c.HueMin, c.HueMax))
	}
	if c.MinSaturation < 0 || c.MinSaturation > 1 {
		err = multierr.Append(err, fmt.Errorf("color class %q: min saturation %g outside [0,1]", c.Name, c.MinSaturation))
	}
	if c.MinArea < 0 {
		err = multierr.Append(err, fmt.Errorf("color class %q: negative min area %d", c.Name, c.MinArea))
	}
	if c.ClosingRadius < 0 {
		err = multierr.Append(err, fmt.Errorf("color class %q: negative closing radius %d", c.Name, c.ClosingRadius))
	}
	return err
}

// Contains reports whether a corrected hue and saturation belong to the class.
func (c ColorClass) Contains(h, s float64) bool {
	if s < c.MinSaturation {
		return false
	}
	if c.HueMin <= c.HueMax {
		return h >= c.HueMin && h <= c.HueMax
	}
	return h >= c.HueMin || h <= c.HueMax
}

// Segment converts img to HSV and returns the raw mask for one class.
// Callers testing several classes should call ToHSV once and use SegmentHSV.
func Segment(img image.Image, class ColorClass) *Mask {
	return SegmentHSV(ToHSV(img), class)
}

// SegmentHSV thresholds an already converted image.
func SegmentHSV(hsv *HSVImage, class ColorClass) *Mask {
	m := NewMask(hsv.Width, hsv.Height)
	for i := range m.Pix {
		m.Pix[i] = class.Contains(hsv.H[i], hsv.S[i])
	}
	return m
}
