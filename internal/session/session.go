// Package session orchestrates one viewing session: the open image, the
// selected pyramid level, viewport and cache geometry, pan tracking, and
// the double-buffered cache refill cycle.
package session

import (
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"sync"

	"wsi-viewer/internal/cache"
	"wsi-viewer/internal/config"
	"wsi-viewer/internal/predict"
	"wsi-viewer/internal/pyramid"
	"wsi-viewer/internal/source"
	"wsi-viewer/internal/tracking"
	"wsi-viewer/pkg/geometry"
)

// Render geometry constants. The cache ceiling bounds GPU texture uploads;
// the zoom step is the coarse keyboard increment above level 4.
const (
	WindowWidth  = 800
	WindowHeight = 600
	CacheMax     = 3000.0
	ZoomStep     = 4
)

// View is the render-facing geometry of the session: viewport and cache
// sizes in level pixels, the cache/viewport scale factors, and the pan
// position inside the cache relative to its center.
type View struct {
	ViewportSize    geometry.Size
	ViewportDefault geometry.Size
	CacheSize       geometry.Size

	CacheScaleFactorX float64
	CacheScaleFactorY float64

	CachePosX float64
	CachePosY float64
}

// BorderState remembers the last classified border twice: Cache drives the
// refill cycle and is reset to Center once a preloaded cache is swapped in;
// Edge keeps the direction for rendering.
type BorderState struct {
	Cache tracking.Border
	Edge  tracking.Border
}

// Session owns all state of one open image. Methods are meant to be called
// from the UI goroutine; the background refill worker only touches the
// double-buffer fields, which are guarded by mu.
type Session struct {
	Paths   []string
	Current int

	Levels   pyramid.Levels
	Level    int
	MaxLevel int

	OffsetX float64
	OffsetY float64

	MaxExtents     geometry.Size
	CurrentExtents geometry.Size
	CurrentZoom    float64
	ShowPred       bool

	View          View
	Tracker       tracking.Tracker
	CurrentBorder BorderState

	WindowW int
	WindowH int

	// MPPX/MPPY hold microns per pixel per pyramid level, when known.
	MPPX []float64
	MPPY []float64

	cfg config.Config
	src source.Source

	mu            sync.Mutex
	liveCache     *image.RGBA
	loadtimeCache *image.RGBA
	updateReady   bool
	inflight      bool
	generation    uint64
	loadErr       error
}

// New opens the first image of the playlist and prepares its initial view.
func New(paths []string, cfg config.Config) (*Session, error) {
	if len(paths) == 0 {
		return nil, errors.New("no input files")
	}
	s := &Session{
		Paths:       paths,
		cfg:         cfg,
		WindowW:     WindowWidth,
		WindowH:     WindowHeight,
		CurrentZoom: 1,
		View: View{
			ViewportSize:      geometry.Size{Width: int(CacheMax) / 2, Height: int(CacheMax) / 2},
			ViewportDefault:   geometry.Size{Width: int(CacheMax) / 2, Height: int(CacheMax) / 2},
			CacheSize:         geometry.Size{Width: int(CacheMax), Height: int(CacheMax)},
			CacheScaleFactorX: 2,
			CacheScaleFactorY: 2,
		},
		Tracker: tracking.Tracker{
			CacheScaleFactorX: 2,
			CacheScaleFactorY: 2,
			CacheCompX:        1,
			CacheCompY:        1,
		},
	}
	if err := s.loadSlide(0); err != nil {
		return nil, err
	}
	return s, nil
}

// Close releases the open image.
func (s *Session) Close() error {
	if s.src == nil {
		return nil
	}
	err := s.src.Close()
	s.src = nil
	return err
}

// loadSlide opens the current playlist entry and initializes level, extent
// and offsets. level <= 0 selects the coarsest level. An entry that fails
// to open is dropped from the playlist and the first remaining entry is
// loaded instead.
func (s *Session) loadSlide(level int) error {
	path := s.Paths[s.Current]
	src, err := source.Open(path)
	if err != nil {
		log.Printf("dropping unreadable image %s: %v", path, err)
		s.Paths = append(s.Paths[:s.Current], s.Paths[s.Current+1:]...)
		s.Current = 0
		if len(s.Paths) > 0 {
			if lerr := s.loadSlide(0); lerr != nil {
				return lerr
			}
		}
		return &cache.ImageLoadError{Path: path, Err: err}
	}
	if s.src != nil {
		s.src.Close()
	}
	s.src = src
	s.invalidatePending()

	s.Levels = src.Downsamples()
	s.MaxLevel = pyramid.Coarsest(s.Levels)
	if level <= 0 {
		level = s.MaxLevel
	}
	s.Level = level

	dims := src.NativeExtent()
	s.MaxExtents = dims
	s.OffsetX = float64(dims.Width) / 2
	s.OffsetY = float64(dims.Height) / 2
	s.ShowPred = false

	if err := s.PlanZoom(); err != nil {
		return err
	}
	return s.Refill(false)
}

// ChangeFile switches the session to another playlist entry.
func (s *Session) ChangeFile(index int) error {
	if index < 0 || index >= len(s.Paths) {
		return fmt.Errorf("playlist index %d out of range [0, %d)", index, len(s.Paths))
	}
	s.Current = index
	s.ResetOffsets()
	return s.loadSlide(0)
}

// PlanZoom recomputes the viewport and cache geometry for the current
// level and pushes the derived bounds into the tracker.
//
// The coarsest level is the thumbnail case: the viewport covers the whole
// image at scale factor 1 and becomes the default the finer levels scale
// from. Finer levels magnify the default by maxLevel/level, clamp the
// viewport to twice the window, cap the cache height at CacheMax, and keep
// the window aspect ratio on the horizontal mirror of the clamp. Preload
// is enabled only when the cache meaningfully exceeds the viewport.
func (s *Session) PlanZoom() error {
	if s.src == nil {
		return errors.New("no image loaded")
	}
	currentExtents := s.src.NativeExtent()

	levelIdx, level, ok := pyramid.NextGreater(s.Levels, s.Level)
	if !ok {
		levelIdx, level = 0, s.Level
	}
	width := s.MaxExtents.Width / level
	height := s.MaxExtents.Height / level
	s.Tracker.PreloadPossible = false
	s.CurrentZoom = float64(s.Level) / float64(level)

	if float64(width) > float64(s.View.CacheSize.Width)/s.View.CacheScaleFactorX ||
		float64(height) > float64(s.View.CacheSize.Height)/s.View.CacheScaleFactorY {
		s.Tracker.PreloadPossible = true
	}

	if s.Level == s.MaxLevel {
		s.View.ViewportSize = geometry.Size{
			Width:  currentExtents.Width / level,
			Height: currentExtents.Height / level,
		}
		s.View.CacheScaleFactorX = 1
		s.Tracker.CacheScaleFactorX = 1
		s.View.CacheSize = s.View.ViewportSize.Scale(s.View.CacheScaleFactorX, s.View.CacheScaleFactorY)
		s.View.ViewportDefault = s.View.ViewportSize
		s.Tracker.CurrentX = float64(currentExtents.Width) / 2
		s.Tracker.CurrentY = float64(currentExtents.Height) / 2
	}

	var sfy, sfx float64
	ignoreCache := true
	s.View.ViewportSize = s.View.ViewportDefault
	mag := float64(s.MaxLevel) / float64(s.Level)
	if float64(s.View.ViewportDefault.Height)*mag < float64(s.WindowH)*2 {
		s.View.ViewportSize.Height = int(float64(s.View.ViewportDefault.Height) * mag)
		sfy = 1
		s.Tracker.PreloadPossible = false
	} else {
		s.Tracker.PreloadPossible = true
		s.View.ViewportSize.Height = s.WindowH * 2
		cacheHeight := float64(s.View.ViewportDefault.Height) * mag
		sfy = cacheHeight / (float64(s.WindowH) * 2)
		ignoreCache = false
		if sfy < 2 {
			ignoreCache = true
			s.Tracker.PreloadPossible = false
		}
	}

	if float64(s.View.ViewportDefault.Height)*mag >= CacheMax {
		s.View.ViewportSize.Height = int(CacheMax) / 2
		sfy = 2
	}

	s.View.CacheSize = s.View.ViewportDefault
	if levelIdx != len(s.Levels)-1 {
		s.View.ViewportSize.Width = int(float64(s.View.ViewportDefault.Width) * mag)
		if float64(s.View.ViewportSize.Width) >= CacheMax/2 && !ignoreCache {
			s.View.ViewportSize.Width = int(CacheMax) / 2
			sfx = 2
		} else {
			s.View.ViewportSize.Width = s.WindowW * 2
			cacheWidth := float64(s.View.ViewportDefault.Width) * mag
			sfx = cacheWidth / (float64(s.WindowW) * 2)
		}
		ratioOrig := float64(s.View.ViewportDefault.Height) / float64(s.View.ViewportDefault.Width)
		ratio := float64(s.View.ViewportSize.Height) / float64(s.View.ViewportSize.Width)
		if ratio != ratioOrig && !ignoreCache {
			windowRatio := float64(s.WindowW) / float64(s.WindowH)
			s.View.ViewportSize.Height = int(float64(s.View.ViewportSize.Width) / windowRatio)
		}
		s.View.CacheScaleFactorX = sfx
		s.Tracker.CacheScaleFactorX = sfx
		s.View.CacheScaleFactorY = sfy
		s.Tracker.CacheScaleFactorY = sfy
		s.View.CacheSize = s.View.ViewportSize.Scale(s.View.CacheScaleFactorX, s.View.CacheScaleFactorY)
	} else {
		s.Tracker.PreloadPossible = false
	}

	// Integer step ratio: a requested level between pyramid members renders
	// the nearest coarser level zoomed by currentZoom.
	if s.Level/level != 1 {
		s.View.ViewportSize.Height = int(float64(s.View.ViewportSize.Height) * s.CurrentZoom)
		s.View.ViewportSize.Width = int(float64(s.View.ViewportSize.Width) * s.CurrentZoom)
	}

	s.View.CacheScaleFactorY = float64(s.View.CacheSize.Height) / float64(s.View.ViewportSize.Height)
	s.View.CacheScaleFactorX = float64(s.View.CacheSize.Width) / float64(s.View.ViewportSize.Width)
	s.Tracker.CacheScaleFactorY = s.View.CacheScaleFactorY
	s.Tracker.CacheScaleFactorX = s.View.CacheScaleFactorX

	s.CurrentExtents = geometry.Size{
		Width:  currentExtents.Width / level,
		Height: currentExtents.Height / level,
	}
	s.Tracker.CacheCompX = s.CurrentZoom
	s.Tracker.CacheCompY = s.CurrentZoom
	s.Tracker.CacheSizeX = s.View.CacheSize.Width
	s.Tracker.CacheSizeY = s.View.CacheSize.Height
	s.Tracker.MaxGlobalX = float64(currentExtents.Width)
	s.Tracker.MinGlobalX = 0
	s.Tracker.MaxGlobalY = float64(currentExtents.Height)
	s.Tracker.MinGlobalY = 0
	// A narrow image can leave a recomputed scale factor below 1; the pan
	// range divisor must stay at least 1.
	divX := int(s.View.CacheScaleFactorX)
	if divX < 1 {
		divX = 1
	}
	divY := int(s.View.CacheScaleFactorY)
	if divY < 1 {
		divY = 1
	}
	s.Tracker.MaxCacheX = s.View.CacheSize.Width / divX
	s.Tracker.MinCacheX = -s.View.CacheSize.Width / divX
	s.Tracker.MaxCacheY = s.View.CacheSize.Height / divY
	s.Tracker.MinCacheY = -s.View.CacheSize.Height / divY

	if mppX, mppY, err := s.src.ResolutionHint(); err == nil {
		s.MPPX = scaleByLevels(mppX, s.Levels)
		s.MPPY = scaleByLevels(mppY, s.Levels)
	} else {
		s.MPPX, s.MPPY = nil, nil
	}
	return nil
}

// scaleByLevels expands a full-magnification value to one entry per level.
func scaleByLevels(base float64, levels pyramid.Levels) []float64 {
	out := make([]float64, len(levels))
	for i, factor := range levels {
		out[i] = base * factor
	}
	return out
}

// Pan applies one drag delta. It classifies the new border state, starts a
// background refill when a fresh cache border is hit, and swaps in the
// preloaded cache once the hard border is crossed. The returned border is
// the classification of this step.
func (s *Session) Pan(deltaX, deltaY float64) (tracking.Border, error) {
	if s.Level >= s.MaxLevel {
		return s.CurrentBorder.Cache, nil
	}
	_, level, ok := pyramid.NextGreater(s.Levels, s.Level)
	if !ok {
		level = s.Level
	}
	limits := s.Tracker.UpdateCoords(s.Level, level,
		&s.OffsetX, &s.OffsetY, &s.View.CachePosX, &s.View.CachePosY, deltaX, deltaY)
	border := s.Tracker.CurrentBorder(limits)

	if border != tracking.BorderCenter && s.CurrentBorder.Cache != border &&
		s.Tracker.PreloadPossible && !border.IsLimit() {
		s.CurrentBorder.Cache = border
		s.CurrentBorder.Edge = border
		if err := s.PlanZoom(); err != nil {
			return border, err
		}
		if err := s.Refill(true); err != nil {
			return border, err
		}
	}

	if limits.BorderReached && !s.CurrentBorder.Cache.IsLimit() && s.Tracker.PreloadPossible {
		s.CurrentBorder.Edge = border
		s.CurrentBorder.Cache = tracking.BorderCenter
		s.PublishCache()
	}
	return border, nil
}

// StepZoom moves the level one keyboard step: fine single-level steps near
// full magnification, ZoomStep-sized steps beyond level 4.
func (s *Session) StepZoom(in bool) error {
	oldLevel := s.Level
	if in {
		if s.Level > ZoomStep {
			s.Level -= ZoomStep
		} else {
			s.Level--
		}
		if s.Level < 1 {
			s.Level = 1
		}
	} else {
		if s.Level < s.MaxLevel {
			if s.Level < ZoomStep {
				s.Level++
			} else {
				s.Level += ZoomStep
			}
		}
	}
	return s.applyLevelChange(oldLevel)
}

// ChangeLevel jumps straight to the given level.
func (s *Session) ChangeLevel(level int) error {
	oldLevel := s.Level
	if level < 1 {
		level = 1
	}
	if level > s.MaxLevel {
		level = s.MaxLevel
	}
	s.Level = level
	return s.applyLevelChange(oldLevel)
}

// applyLevelChange replans the geometry after a level move and reconciles
// the pan offsets, refilling the cache in the foreground. Reaching the
// coarsest level recenters instead: the thumbnail always shows the whole
// image.
func (s *Session) applyLevelChange(oldLevel int) error {
	s.invalidatePending()
	if s.Level == s.MaxLevel {
		s.ResetOffsets()
		if err := s.PlanZoom(); err != nil {
			return err
		}
		return s.Refill(false)
	}

	_, level, ok := pyramid.NextGreater(s.Levels, s.Level)
	if !ok {
		level = s.MaxLevel
	}
	if err := s.PlanZoom(); err != nil {
		return err
	}
	s.UpdateOffsets(oldLevel)
	_, oldGreater, ok := pyramid.NextGreater(s.Levels, oldLevel)
	if !ok {
		oldGreater = s.MaxLevel
	}
	if level != s.MaxLevel || oldGreater != s.MaxLevel {
		return s.Refill(false)
	}
	return nil
}

// ResetOffsets recenters the view on the image midpoint and clears all pan
// state.
func (s *Session) ResetOffsets() {
	s.OffsetX = float64(s.MaxExtents.Width) / 2
	s.OffsetY = float64(s.MaxExtents.Height) / 2
	s.Tracker.CurrentX = s.OffsetX
	s.Tracker.CurrentY = s.OffsetY
	s.View.CachePosX = 0
	s.View.CachePosY = 0
	s.CurrentBorder = BorderState{}
	s.Tracker.CenterCorrectionX = 0
	s.Tracker.CenterCorrectionY = 0
}

// UpdateOffsets reconciles the global offset with the cache pan position
// after a level change from oldLevel. Pan distance accumulated in cache
// pixels is folded into the global offset at the old level's scale; when
// preloading was off the residue is pushed back into the cache position at
// the new level's scale instead. Soft-trigger overshoot is compensated
// first, and everything is clipped to the valid ranges. The tracker's stable
// position follows the reconciled offset. Limit borders are kept, any other
// border resets to Center.
func (s *Session) UpdateOffsets(oldLevel int) {
	s.Tracker.CurrentX = s.OffsetX
	s.Tracker.CurrentY = s.OffsetY
	_, level, ok := pyramid.NextGreater(s.Levels, s.Level)
	if !ok {
		level = s.Level
	}
	_, oldGreater, ok := pyramid.NextGreater(s.Levels, oldLevel)
	if !ok {
		oldGreater = oldLevel
	}
	oldZoom := float64(oldLevel) / float64(oldGreater)
	isEdge := s.CurrentBorder.Cache.IsLimit()

	viewportX := float64(s.View.CacheSize.Width) / 2 * oldZoom
	viewportY := float64(s.View.CacheSize.Height) / 2 * oldZoom
	cacheW := float64(s.View.CacheSize.Width)
	cacheH := float64(s.View.CacheSize.Height)
	softX := (cacheW/2 - viewportX/2) / 2
	softY := (cacheH/2 - viewportY/2) / 2
	old := float64(oldGreater)

	if oldGreater != s.MaxLevel {
		if s.View.CachePosX > softX {
			s.OffsetX -= softX * 2 * old
		}
		if s.View.CachePosX < -softX {
			s.OffsetX += softX * 2 * old
		}
		if s.View.CachePosY > softY {
			s.OffsetY -= softY * 2 * old
		}
		if s.View.CachePosY < -softY {
			s.OffsetY += softY * 2 * old
		}
	}

	if s.Tracker.PreloadPossible {
		if oldGreater != s.MaxLevel {
			s.OffsetX += s.View.CachePosX * old
			s.OffsetY += s.View.CachePosY * old
		} else {
			s.OffsetX = float64(s.MaxExtents.Width)/2 + s.View.CachePosX*old
			s.OffsetY = float64(s.MaxExtents.Height)/2 + s.View.CachePosY*old
		}
		s.View.CachePosX = 0
		s.View.CachePosY = 0
	} else {
		var correctionX, correctionY float64
		if oldGreater != s.MaxLevel {
			correctionX = float64(s.MaxExtents.Width)/2 - s.OffsetX
			correctionY = float64(s.MaxExtents.Height)/2 - s.OffsetY
		}
		s.View.CachePosX = -(correctionX - s.View.CachePosX*old) / float64(level)
		s.View.CachePosY = -(correctionY - s.View.CachePosY*old) / float64(level)
		s.OffsetX = float64(s.MaxExtents.Width) / 2
		s.OffsetY = float64(s.MaxExtents.Height) / 2
		s.Tracker.ClipCacheCoords(&s.View.CachePosX, &s.View.CachePosY)
	}
	s.Tracker.ClipGlobalCoords(&s.OffsetX, &s.OffsetY, level)
	s.Tracker.CurrentX = s.OffsetX
	s.Tracker.CurrentY = s.OffsetY

	if !isEdge {
		s.CurrentBorder = BorderState{}
	}
	s.Tracker.CenterCorrectionX = 0
	s.Tracker.CenterCorrectionY = 0
}

// TogglePrediction flips overlay rendering and refetches the cache. Turning
// the overlay on requires the prediction file to exist.
func (s *Session) TogglePrediction() error {
	predPath := predict.PredPath(s.Paths[s.Current])
	if !s.ShowPred {
		if _, err := os.Stat(predPath); err != nil {
			return &cache.OverlayError{Path: predPath, Err: err}
		}
	}
	s.ShowPred = !s.ShowPred
	return s.Refill(false)
}
