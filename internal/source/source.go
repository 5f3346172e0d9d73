// Package source provides read access to pyramidal images: the native
// extent, the available downsample levels, and region reads addressed in
// full-resolution coordinates.
package source

import (
	"errors"
	"image"

	"wsi-viewer/internal/pyramid"
	"wsi-viewer/pkg/geometry"
)

// ErrNoResolution is returned by ResolutionHint when the file carries no
// usable physical resolution metadata.
var ErrNoResolution = errors.New("no resolution metadata")

// Source is a read-only pyramidal image.
type Source interface {
	// NativeExtent returns the full-resolution image size in pixels.
	NativeExtent() geometry.Size

	// Downsamples returns the ordered downsample factors, finest first.
	// Index i addresses the pyramid level read by ReadRegion.
	Downsamples() pyramid.Levels

	// ReadRegion reads a region of the given pyramid level. addr is the
	// top-left corner in full-resolution pixel coordinates; size is in
	// level pixels. Parts of the region outside the image are zero-filled.
	ReadRegion(level int, addr geometry.PointInt, size geometry.Size) (*image.RGBA, error)

	// ResolutionHint reports the physical resolution in microns per pixel
	// at full magnification, or ErrNoResolution.
	ResolutionHint() (mppX, mppY float64, err error)

	Close() error
}
