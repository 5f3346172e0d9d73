package session

import (
	"image"
	"os"

	"wsi-viewer/internal/cache"
	"wsi-viewer/internal/predict"
	"wsi-viewer/internal/source"
)

// regionArgs snapshots the current view into fetch arguments.
func (s *Session) regionArgs() cache.RegionArgs {
	return cache.RegionArgs{
		CacheScaleFactorX: s.View.CacheScaleFactorX,
		CacheScaleFactorY: s.View.CacheScaleFactorY,
		Level:             s.Level,
		MaxExtents:        s.MaxExtents,
		CacheSize:         s.View.CacheSize,
		OffsetX:           s.OffsetX,
		OffsetY:           s.OffsetY,
		Levels:            s.Levels,
		Path:              s.Paths[s.Current],
	}
}

// Refill fetches a fresh cache buffer for the current position.
//
// In the foreground the live cache is replaced directly. In the background
// the fetch runs in a goroutine writing into the staging buffer; the result
// is swapped in later by PublishCache. At most one background refill is in
// flight, none is started while a staged buffer awaits publish, and a
// completion belonging to a superseded view (level change, file change) is
// discarded.
func (s *Session) Refill(background bool) error {
	args := s.regionArgs()
	loadPred := s.ShowPred
	predPath := predict.PredPath(args.Path)
	src := s.src

	if background {
		s.mu.Lock()
		if s.inflight || s.updateReady {
			s.mu.Unlock()
			return nil
		}
		s.inflight = true
		gen := s.generation
		s.mu.Unlock()

		go func() {
			region, err := fetchRegion(src, args, loadPred, predPath)
			s.mu.Lock()
			defer s.mu.Unlock()
			s.inflight = false
			if gen != s.generation {
				return
			}
			if err != nil {
				s.loadErr = err
			}
			if region != nil {
				s.loadtimeCache = region
				s.updateReady = true
			}
		}()
		return nil
	}

	region, err := fetchRegion(src, args, loadPred, predPath)
	if region != nil {
		s.mu.Lock()
		s.liveCache = region
		s.mu.Unlock()
	}
	return err
}

// fetchRegion reads the primary region and, when enabled and present, the
// prediction overlay, blending the two. An overlay failure is soft: the
// primary region is still returned alongside the error.
func fetchRegion(src source.Source, args cache.RegionArgs, loadPred bool, predPath string) (*image.RGBA, error) {
	region, primaryErr := cache.GetRegion(src, args)

	var overlay *image.RGBA
	var overlayErr error
	if loadPred {
		if _, err := os.Stat(predPath); err == nil {
			overlay, overlayErr = fetchOverlay(predPath, args)
		}
	}

	switch {
	case primaryErr != nil && overlayErr != nil:
		return nil, &cache.CombinedError{Path: args.Path, Primary: primaryErr, Overlay: overlayErr}
	case primaryErr != nil:
		return nil, primaryErr
	case overlayErr != nil:
		return region, overlayErr
	case overlay != nil:
		blended, err := cache.Blend(region, overlay)
		if err != nil {
			return region, err
		}
		return blended, nil
	}
	return region, nil
}

func fetchOverlay(predPath string, args cache.RegionArgs) (*image.RGBA, error) {
	overlaySrc, err := source.Open(predPath)
	if err != nil {
		return nil, &cache.OverlayError{Path: predPath, Err: err}
	}
	defer overlaySrc.Close()
	return cache.GetOverlayRegion(overlaySrc, args)
}

// PublishCache swaps the staged buffer into the live cache. Safe to call
// when nothing is staged.
func (s *Session) PublishCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadtimeCache != nil {
		s.liveCache = s.loadtimeCache
		s.loadtimeCache = nil
		s.updateReady = false
	}
}

// Ready reports whether a staged cache buffer is waiting to be published.
func (s *Session) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateReady
}

// Cache returns the live cache buffer, or nil before the first refill.
func (s *Session) Cache() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liveCache
}

// LastError returns and clears the most recent background refill error.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.loadErr
	s.loadErr = nil
	return err
}

// invalidatePending discards any staged buffer and marks in-flight refills
// stale. Called when the view they were fetched for no longer exists.
func (s *Session) invalidatePending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.loadtimeCache = nil
	s.updateReady = false
}
