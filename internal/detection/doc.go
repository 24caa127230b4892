// Package detection locates circular sign candidates in binary masks.
//
// The input is a cleaned mask produced by package segment for one color
// class; the output is a short, ordered list of Circle candidates.
//
// # Algorithm Overview
//
// FindCircles runs a circular Hough transform over every radius in the
// configured range:
//
//  1. Rim extraction: mask pixels with a background 4-neighbour vote
//  2. Voting: each rim pixel votes for every center whose perimeter passes through it
//  3. Scoring: votes divided by perimeter length (fraction of the circle covered)
//  4. Filtering: relative threshold against the best score plus an absolute floor
//  5. Ordering and duplicate removal: see FindCircles
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// # Scores
//
// Score is the fraction of the candidate's midpoint-circle perimeter lying on
// the mask rim:
//   - 1.0 = the whole perimeter is on the rim (exact outline)
//   - ~0.8 = typical for a filled disk, whose rim is slightly inside the ideal circle
//   - Lower values indicate arcs or partial overlap
//
// # Performance Considerations
//
// Cost is O(rim pixels × perimeter length × radii). Masks are usually sparse
// after cleanup, so the transform runs quickly even on full photographs;
// narrow the radius range first when it does not.
//
// # Limitations
//
//   - Only circles are detected; triangular and octagonal signs are out of scope
//   - Overlapping signs of similar size may merge under duplicate removal
package detection
