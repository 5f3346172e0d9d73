// Package tracking keeps the three coordinate spaces of the viewer consistent
// while panning: global offsets in full-resolution pixels, cache-local pan
// offsets, and the border state describing how close the pan position is to
// the cache edge or the true image edge.
package tracking

import "math"

// MovementAmp amplifies raw drag deltas before they are applied to the
// cache-local pan position. Calibration constant, do not re-derive.
const MovementAmp = 2.0

// Tracker tracks all positions and updates to be extracted for accurate
// rendering after position updates from dragging.
//
// Global coordinates are full-magnification pixels clamped to
// [MinGlobal, MaxGlobal]; cache coordinates are cache-buffer pixels relative
// to the cache center, clamped against the cache size and scale factors.
// CacheComp corrects for the ratio between the requested zoom factor and the
// nearest available downsample level.
type Tracker struct {
	MaxGlobalX float64
	MaxGlobalY float64
	MinGlobalX float64
	MinGlobalY float64

	MaxCacheX int
	MaxCacheY int
	MinCacheX int
	MinCacheY int

	CacheSizeX int
	CacheSizeY int

	// CurrentX/Y hold the last stable border-derived pan center; the global
	// offset is re-derived from them plus a per-border correction on every
	// pan step.
	CurrentX float64
	CurrentY float64

	// Correction imposed by switching drag directions, in pixels. Zeroed
	// once the position re-centers or a border is freshly reached.
	CenterCorrectionX float64
	CenterCorrectionY float64

	PreloadPossible bool

	CacheScaleFactorX float64
	CacheScaleFactorY float64

	CacheCompX float64
	CacheCompY float64
}

// UpdateCoords applies one pan delta and reclassifies the position.
//
// The delta is amplified by MovementAmp and subtracted from the cache-local
// position. Soft cache triggers fire at half the distance to the cache edge;
// hard edge flags fire when the global offset sits on the image bound. When a
// full cache border is newly crossed (and the matching image edge is not) and
// preload is possible, the step is flagged BorderReached: both coordinate
// spaces are clipped, the stable position is snapped, corrections are zeroed,
// and diagonal offset compensation is applied; the caller should then swap
// in the preloaded cache. Both spaces are re-clipped unconditionally before
// returning.
func (t *Tracker) UpdateCoords(level, originalLevel int, globalX, globalY, cacheX, cacheY *float64, deltaX, deltaY float64) Limits {
	var limits Limits

	*cacheX -= deltaX * MovementAmp
	*cacheY -= deltaY * MovementAmp

	viewportSizeX := float64(t.CacheSizeX) / t.CacheScaleFactorX
	viewportSizeY := float64(t.CacheSizeY) / t.CacheScaleFactorY

	// Soft triggers at half the distance between viewport edge and cache edge.
	xRightReached := *cacheX >= (float64(t.CacheSizeX)/2-viewportSizeX/2)/2
	yBottomReached := *cacheY >= (float64(t.CacheSizeY)/2-viewportSizeY/2)/2
	xLeftReached := *cacheX <= (-float64(t.CacheSizeX)/2+viewportSizeX/2)/2
	yTopReached := *cacheY <= (-float64(t.CacheSizeY)/2+viewportSizeY/2)/2

	limits.CacheRight = xRightReached
	limits.CacheLeft = xLeftReached
	limits.CacheBottom = yBottomReached
	limits.CacheTop = yTopReached
	limits.Edges = t.checkCoords(*globalX, *globalY, originalLevel)

	border := t.CurrentBorder(limits)
	t.setGlobalCoords(globalX, globalY, level, border)

	if xRightReached || yBottomReached || xLeftReached || yTopReached {
		limits.CacheReached = true
	}

	// Hard cache edges at the full threshold.
	xRightReached = *cacheX >= float64(t.CacheSizeX)/2-viewportSizeX/2
	yBottomReached = *cacheY >= float64(t.CacheSizeY)/2-viewportSizeY/2
	xLeftReached = *cacheX <= -float64(t.CacheSizeX)/2+viewportSizeX/2
	yTopReached = *cacheY <= -float64(t.CacheSizeY)/2+viewportSizeY/2

	if ((xRightReached && !limits.Edges.Right) ||
		(yBottomReached && !limits.Edges.Bottom) ||
		(xLeftReached && !limits.Edges.Left) ||
		(yTopReached && !limits.Edges.Top)) && t.PreloadPossible {
		limits.BorderReached = true

		hard := Limits{
			CacheRight:    xRightReached,
			CacheLeft:     xLeftReached,
			CacheBottom:   yBottomReached,
			CacheTop:      yTopReached,
			BorderReached: true,
			Edges:         limits.Edges,
		}
		t.ClipGlobalCoords(globalX, globalY, level)
		t.ClipCacheCoords(cacheX, cacheY)

		t.CurrentX = *globalX
		t.CurrentY = *globalY
		t.CenterCorrectionX = 0
		t.CenterCorrectionY = 0
		t.compensateOffsets(cacheX, cacheY, hard, border)
	}

	t.ClipGlobalCoords(globalX, globalY, originalLevel)
	t.ClipCacheCoords(cacheX, cacheY)
	return limits
}

// ClipCacheCoords clips the provided cache coordinates to the pannable range
// left once the viewport share of the cache is subtracted.
func (t *Tracker) ClipCacheCoords(cacheX, cacheY *float64) {
	sfx := t.CacheScaleFactorX
	sfy := t.CacheScaleFactorY
	*cacheY = clamp(*cacheY,
		float64(t.CacheSizeY)/(2*sfy)-float64(t.CacheSizeY)/2,
		float64(t.CacheSizeY)/2-float64(t.CacheSizeY)/(2*sfy))
	*cacheX = clamp(*cacheX,
		float64(t.CacheSizeX)/(2*sfx)-float64(t.CacheSizeX)/2,
		float64(t.CacheSizeX)/2-float64(t.CacheSizeX)/(2*sfx))
}

// ClipGlobalCoords clips the provided global coordinates to the image extent.
func (t *Tracker) ClipGlobalCoords(globalX, globalY *float64, originalLevel int) {
	minX, minY, maxX, maxY := t.minMax(originalLevel)
	*globalY = clamp(*globalY, minY, maxY)
	*globalX = clamp(*globalX, minX, maxX)
}

// minMax returns the legal global coordinate range at the given level.
func (t *Tracker) minMax(originalLevel int) (minX, minY, maxX, maxY float64) {
	width := t.MaxGlobalX / float64(originalLevel)
	height := t.MaxGlobalY / float64(originalLevel)
	return 0, 0, width * float64(originalLevel), height * float64(originalLevel)
}

// checkCoords evaluates the hard image-edge flags for a global position.
func (t *Tracker) checkCoords(globalX, globalY float64, originalLevel int) EdgeFlags {
	minX, minY, maxX, maxY := t.minMax(originalLevel)
	var edges EdgeFlags
	if globalY <= minY {
		edges.Top = true
	}
	if globalY >= maxY {
		edges.Bottom = true
	}
	if globalX <= minX {
		edges.Left = true
	}
	if globalX >= maxX {
		edges.Right = true
	}
	return edges
}

// setGlobalCoords re-derives the global offset from the stable position plus
// a per-border correction proportional to the headroom between cache and
// viewport, scaled to full-resolution pixels.
//
// Cache axes: negative X is left, positive X right, negative Y top,
// positive Y bottom.
func (t *Tracker) setGlobalCoords(x, y *float64, level int, border Border) {
	var correctionX, correctionY float64
	viewportSizeX := float64(t.CacheSizeX) / t.CacheScaleFactorX
	viewportSizeY := float64(t.CacheSizeY) / t.CacheScaleFactorY
	lvl := float64(level)

	headroomX := (float64(t.CacheSizeX)/2 - viewportSizeX/2) / t.CacheCompX * lvl
	headroomY := (float64(t.CacheSizeY)/2 - viewportSizeY/2) / t.CacheCompY * lvl

	switch border {
	case BorderTop:
		correctionY = -headroomY
		*y = t.CurrentY + correctionY
		*x = t.CurrentX
	case BorderBottom:
		correctionY = headroomY
		*y = t.CurrentY + correctionY
		*x = t.CurrentX
	case BorderRight:
		correctionX = headroomX
		*x = t.CurrentX + correctionX
		*y = t.CurrentY
	case BorderLeft:
		correctionX = -headroomX
		*x = t.CurrentX + correctionX
		*y = t.CurrentY
	case BorderCenter:
		*x = t.CurrentX - t.CenterCorrectionX
		*y = t.CurrentY - t.CenterCorrectionY
	case BorderTopLeft:
		correctionX = -headroomX
		correctionY = -headroomY
		*x = t.CurrentX + correctionX
		*y = t.CurrentY + correctionY
	case BorderTopRight:
		correctionX = headroomX
		correctionY = -headroomY
		*x = t.CurrentX + correctionX
		*y = t.CurrentY + correctionY
	case BorderBottomLeft:
		correctionX = -headroomX
		correctionY = headroomY
		*x = t.CurrentX + correctionX
		*y = t.CurrentY + correctionY
	case BorderBottomRight:
		correctionX = headroomX
		correctionY = headroomY
		*x = t.CurrentX + correctionX
		*y = t.CurrentY + correctionY
	}
	t.CenterCorrectionX = correctionX
	t.CenterCorrectionY = correctionY
}

// compensateOffsets redistributes the cache pan budget when a diagonal drag
// reaches a corner with only one axis actually exhausted: that axis is
// zeroed and the remaining budget is folded onto the other axis, clamped to
// the cache's legal half-range. Straight borders simply zero their axis.
func (t *Tracker) compensateOffsets(cacheX, cacheY *float64, limits Limits, border Border) {
	sfy := t.CacheScaleFactorY
	sfx := t.CacheScaleFactorX
	minY := -float64(t.CacheSizeY) / (2 * sfy)
	maxY := float64(t.CacheSizeY) / (2 * sfy)
	minX := -float64(t.CacheSizeX) / (2 * sfx)
	maxX := float64(t.CacheSizeX) / (2 * sfx)
	viewportSizeX := float64(t.CacheSizeX) / sfx
	viewportSizeY := float64(t.CacheSizeY) / sfy

	switch border {
	case BorderTop, BorderBottom:
		*cacheY = 0
	case BorderRight, BorderLeft:
		*cacheX = 0
	case BorderTopLeft:
		if limits.CacheLeft && limits.Edges.XInCenter() {
			*cacheX = 0
			dist := float64(t.CacheSizeY)/2 - viewportSizeY/2 - math.Abs(*cacheY)
			if limits.Edges.YInCenter() {
				*cacheY = dist
			} else {
				*cacheY = minY + dist
			}
			return
		}
		if limits.CacheTop && limits.Edges.YInCenter() {
			*cacheY = 0
			dist := float64(t.CacheSizeX)/2 - viewportSizeX/2 - math.Abs(*cacheX)
			if limits.Edges.XInCenter() {
				*cacheX = dist
			} else {
				*cacheX = minX + dist
			}
		}
	case BorderBottomLeft:
		if limits.CacheLeft && limits.Edges.XInCenter() {
			*cacheX = 0
			dist := float64(t.CacheSizeY)/2 - viewportSizeY/2 - math.Abs(*cacheY)
			if limits.Edges.YInCenter() {
				*cacheY = -dist
			} else {
				*cacheY = maxY - dist
			}
			return
		}
		if limits.CacheBottom && limits.Edges.YInCenter() {
			*cacheY = 0
			dist := float64(t.CacheSizeX)/2 - viewportSizeX/2 - math.Abs(*cacheX)
			if limits.Edges.XInCenter() {
				*cacheX = dist
			} else {
				*cacheX = minX + dist
			}
		}
	case BorderTopRight:
		if limits.CacheRight && limits.Edges.XInCenter() {
			*cacheX = 0
			dist := float64(t.CacheSizeY)/2 - viewportSizeY/2 - math.Abs(*cacheY)
			if limits.Edges.YInCenter() {
				*cacheY = dist
			} else {
				*cacheY = minY + dist
			}
		}
		if limits.CacheTop && limits.Edges.YInCenter() {
			*cacheY = 0
			dist := float64(t.CacheSizeX)/2 - viewportSizeX/2 - math.Abs(*cacheX)
			if limits.Edges.XInCenter() {
				*cacheX = -dist
			} else {
				*cacheX = maxX - dist
			}
		}
	case BorderBottomRight:
		if limits.CacheRight && limits.Edges.XInCenter() {
			*cacheX = 0
			dist := float64(t.CacheSizeY)/2 - viewportSizeY/2 - math.Abs(*cacheY)
			if limits.Edges.YInCenter() {
				*cacheY = -dist
			} else {
				*cacheY = maxY - dist
			}
		}
		if limits.CacheBottom && limits.Edges.YInCenter() {
			*cacheY = 0
			dist := float64(t.CacheSizeX)/2 - viewportSizeX/2 - math.Abs(*cacheX)
			if limits.Edges.XInCenter() {
				*cacheX = -dist
			} else {
				*cacheX = maxX - dist
			}
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
