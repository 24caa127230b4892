// Package segment turns photographs into per-color binary masks and cleans them up.
//
// The package covers the first two stages of sign detection:
//
//  1. Color segmentation: the image is converted to hue/saturation/value once
//     (see ToHSV) and each configured ColorClass selects its pixels by a hue
//     window and a minimum saturation (see Segment and SegmentHSV).
//  2. Morphological cleanup: connected components smaller than a minimum
//     area are discarded, then a disk-shaped closing fills small gaps
//     (see Clean).
//
// # Hue Correction
//
// Hue is stored in [0,1). Red sits on both sides of the hue origin, so every
// hue above HueWrapThreshold (0.8) is folded to 0 before any window is tested.
// The fold happens once in ToHSV and is therefore shared by every color class.
//
// # Coordinates
//
// Masks are row-major grids with (0,0) at the top-left corner, matching the
// source image after its bounds are normalized to start at the origin.
//
// # Thread Safety
//
// All functions are pure. Inputs are never modified; every operation returns
// a freshly allocated Mask.
package segment
