// Package cache fetches cache-sized regions from a pyramidal source and
// blends prediction overlays into them. A cache buffer is larger than the
// viewport by the cache scale factor, so panning stays local until a border
// is reached.
package cache

import (
	"image"
	"image/draw"
	"math"

	"wsi-viewer/internal/pyramid"
	"wsi-viewer/internal/source"
	"wsi-viewer/pkg/geometry"
)

// RegionArgs carries everything needed to fetch one cache buffer. Offsets
// are the viewport center in full-resolution pixels; CacheSize is in pixels
// of the selected level.
type RegionArgs struct {
	CacheScaleFactorX float64
	CacheScaleFactorY float64
	Level             int
	MaxExtents        geometry.Size
	CacheSize         geometry.Size
	OffsetX           float64
	OffsetY           float64
	Levels            pyramid.Levels
	Path              string
}

// plan resolves the common region geometry: the serving level, the top-left
// corner in full-resolution pixels, and the read size after shrinking away
// any overhang past the image origin. The coarsest level skips shrinking,
// its cache covers the whole image.
func (a RegionArgs) plan() (levelIdx, level int, posX, posY float64, w, h int) {
	levelIdx, level, ok := pyramid.NextGreater(a.Levels, a.Level)
	if !ok {
		levelIdx, level = len(a.Levels)-1, a.Level
	}
	lastLevel := pyramid.Coarsest(a.Levels)
	lvl := float64(level)

	cw, ch := a.CacheSize.Width, a.CacheSize.Height
	posX = a.OffsetX - float64(cw)/2*lvl
	posY = a.OffsetY - float64(ch)/2*lvl

	w, h = cw, ch
	if posY < 0 && level != lastLevel {
		h = int(math.Abs(float64(h) - math.Abs(posY)/lvl))
	}
	if posX < 0 && level != lastLevel {
		w = int(math.Abs(float64(w) - math.Abs(posX)/lvl))
	}
	return levelIdx, level, posX, posY, w, h
}

// GetRegion reads the cache-sized region centered on the current offset.
// Reads shrunk by an overhang past the origin are embedded bottom/right
// aligned into a zero-filled buffer of the full cache size, so positions
// outside the image render as black instead of failing.
func GetRegion(src source.Source, args RegionArgs) (*image.RGBA, error) {
	levelIdx, _, posX, posY, w, h := args.plan()
	w, h = max(w, 1), max(h, 1)

	addr := geometry.PointInt{
		X: int(math.Max(posX, 0)),
		Y: int(math.Max(posY, 0)),
	}
	region, err := src.ReadRegion(levelIdx, addr, geometry.Size{Width: w, Height: h})
	if err != nil {
		return nil, &ImageLoadError{Path: args.Path, Err: err}
	}
	return embed(region, args.CacheSize, geometry.PointInt{
		X: args.CacheSize.Width - w,
		Y: args.CacheSize.Height - h,
	}), nil
}

// GetOverlayRegion reads the matching region out of a prediction overlay.
// The overlay plane is stored at the coarsest downsample, so the request is
// scaled onto its grid, read at full overlay resolution, embedded, and then
// resampled back to the cache size.
func GetOverlayRegion(overlay source.Source, args RegionArgs) (*image.RGBA, error) {
	_, level, posX, posY, w, h := args.plan()
	lastLevel := pyramid.Coarsest(args.Levels)

	w = max(w*level/lastLevel, 1)
	h = max(h*level/lastLevel, 1)
	scaled := geometry.Size{
		Width:  args.CacheSize.Width * level / lastLevel,
		Height: args.CacheSize.Height * level / lastLevel,
	}

	addr := geometry.PointInt{
		X: int(math.Max(posX/float64(lastLevel), 0)),
		Y: int(math.Max(posY/float64(lastLevel), 0)),
	}
	region, err := overlay.ReadRegion(0, addr, geometry.Size{Width: w, Height: h})
	if err != nil {
		return nil, &OverlayError{Path: args.Path, Err: err}
	}
	embedded := embed(region, scaled, geometry.PointInt{X: scaled.Width - w, Y: scaled.Height - h})
	return resampleRGBA(embedded, args.CacheSize)
}

// embed places region into a zero-filled buffer of the given size with its
// top-left corner at offset.
func embed(region *image.RGBA, size geometry.Size, offset geometry.PointInt) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	b := region.Bounds()
	dst := image.Rect(offset.X, offset.Y, offset.X+b.Dx(), offset.Y+b.Dy())
	draw.Draw(out, dst, region, b.Min, draw.Src)
	return out
}
