// Package pyramid describes the precomputed downsample levels of a
// pyramidal image and selects the level serving a requested zoom factor.
package pyramid

// Levels is the ordered sequence of downsample factors available in an
// image pyramid, ascending, fixed at image-load time. A factor of 1 is the
// native full-resolution plane; the last entry is the coarsest thumbnail.
type Levels []float64

// NextGreater returns the index and value of the first level whose factor is
// >= target, i.e. the nearest available resolution at least as coarse as the
// request. ok is false when the target exceeds every available factor.
//
// The sequence is assumed sorted ascending; for unsorted input the result is
// whatever the linear scan finds first.
func NextGreater(levels Levels, target int) (idx int, level int, ok bool) {
	for i, value := range levels {
		if value >= float64(target) {
			return i, int(value), true
		}
	}
	return 0, 0, false
}

// Coarsest returns the last (largest) downsample factor, or 1 for an empty
// sequence.
func Coarsest(levels Levels) int {
	if len(levels) == 0 {
		return 1
	}
	return int(levels[len(levels)-1])
}
