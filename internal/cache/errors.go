package cache

import "fmt"

// ImageLoadError reports a primary image that could not be opened or read.
type ImageLoadError struct {
	Path string
	Err  error
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("failed to load image %s: %v", e.Path, e.Err)
}

func (e *ImageLoadError) Unwrap() error { return e.Err }

// OverlayError reports an overlay plane that could not be fetched. The
// primary image is still usable when only the overlay fails.
type OverlayError struct {
	Path string
	Err  error
}

func (e *OverlayError) Error() string {
	return fmt.Sprintf("failed to load overlay %s: %v", e.Path, e.Err)
}

func (e *OverlayError) Unwrap() error { return e.Err }

// CombinedError reports a refill where both the primary image and the
// overlay failed; the previous cache contents stay in place.
type CombinedError struct {
	Path    string
	Primary error
	Overlay error
}

func (e *CombinedError) Error() string {
	return fmt.Sprintf("failed to load %s: primary: %v; overlay: %v", e.Path, e.Primary, e.Overlay)
}

// ShapeError reports mismatched buffer dimensions in a blend.
type ShapeError struct {
	WantWidth, WantHeight int
	GotWidth, GotHeight   int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("buffer shape mismatch: want %dx%d, got %dx%d",
		e.WantWidth, e.WantHeight, e.GotWidth, e.GotHeight)
}
