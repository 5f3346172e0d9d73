// Package geometry provides basic geometric types used throughout the viewer.
package geometry

// PointInt represents a 2D point with integer pixel coordinates.
type PointInt struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Size represents pixel dimensions of an image, viewport, or cache buffer.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Scale returns the size scaled by a factor per axis, truncated to pixels.
func (s Size) Scale(fx, fy float64) Size {
	return Size{
		Width:  int(float64(s.Width) * fx),
		Height: int(float64(s.Height) * fy),
	}
}

// Div returns the size divided by an integer downsample factor.
func (s Size) Div(factor int) Size {
	if factor == 0 {
		return s
	}
	return Size{Width: s.Width / factor, Height: s.Height / factor}
}
