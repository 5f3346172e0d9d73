// Package viewer provides the slide display widget. It renders the viewport
// window of the session's live cache and translates mouse and keyboard input
// into pan, zoom, and overlay commands.
package viewer

import (
	"image"
	"log"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/disintegration/imaging"

	"wsi-viewer/internal/session"
)

// dragThreshold filters out sub-pixel jitter between drag events.
const dragThreshold = 1.0

// SlideView displays a session's live cache and forwards user input to it.
// All event handlers run on the UI goroutine, matching the session's
// threading contract.
type SlideView struct {
	widget.BaseWidget

	session *session.Session
	raster  *fynecanvas.Raster
}

// New creates a slide view bound to the given session.
func New(s *session.Session) *SlideView {
	v := &SlideView{session: s}
	v.raster = fynecanvas.NewRaster(v.draw)
	v.raster.SetMinSize(fyne.NewSize(session.WindowWidth, session.WindowHeight))
	v.ExtendBaseWidget(v)
	return v
}

// ViewportBounds returns the cache rectangle the viewport currently covers:
// a viewport-sized window around the cache center, shifted by the pan
// position.
func ViewportBounds(view session.View) image.Rectangle {
	x0 := float64(view.CacheSize.Width)/2 - float64(view.ViewportSize.Width)/2 + view.CachePosX
	y0 := float64(view.CacheSize.Height)/2 - float64(view.ViewportSize.Height)/2 + view.CachePosY
	return image.Rect(int(x0), int(y0),
		int(x0)+view.ViewportSize.Width, int(y0)+view.ViewportSize.Height)
}

// draw is the raster drawing function: crop the viewport out of the live
// cache and scale it to the widget size.
func (v *SlideView) draw(w, h int) image.Image {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	if w <= 0 || h <= 0 {
		return out
	}
	cacheImg := v.session.Cache()
	if cacheImg == nil {
		return out
	}
	crop := ViewportBounds(v.session.View).Intersect(cacheImg.Bounds())
	if crop.Empty() {
		return out
	}
	return imaging.Resize(cacheImg.SubImage(crop), w, h, imaging.Linear)
}

// Dragged pans the view by the mouse delta.
func (v *SlideView) Dragged(ev *fyne.DragEvent) {
	dx := float64(ev.Dragged.DX)
	dy := float64(ev.Dragged.DY)
	if dx*dx+dy*dy <= dragThreshold {
		return
	}
	if _, err := v.session.Pan(dx, dy); err != nil {
		log.Printf("pan: %v", err)
	}
	if err := v.session.LastError(); err != nil {
		log.Printf("cache refill: %v", err)
	}
	v.raster.Refresh()
}

// DragEnd implements fyne.Draggable.
func (v *SlideView) DragEnd() {}

// Scrolled zooms on the mouse wheel.
func (v *SlideView) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY == 0 {
		return
	}
	v.Zoom(ev.Scrolled.DY > 0)
}

// Zoom steps the magnification one keyboard step and repaints.
func (v *SlideView) Zoom(in bool) {
	if err := v.session.StepZoom(in); err != nil {
		log.Printf("zoom: %v", err)
	}
	v.raster.Refresh()
}

// TogglePrediction flips the prediction overlay and repaints.
func (v *SlideView) TogglePrediction() {
	if err := v.session.TogglePrediction(); err != nil {
		log.Printf("prediction overlay: %v", err)
	}
	v.raster.Refresh()
}

// HandleKey maps keyboard shortcuts onto session commands.
func (v *SlideView) HandleKey(ev *fyne.KeyEvent) {
	switch ev.Name {
	case fyne.KeyUp, fyne.KeyPlus:
		v.Zoom(true)
	case fyne.KeyDown, fyne.KeyMinus:
		v.Zoom(false)
	case fyne.KeyP:
		v.TogglePrediction()
	case fyne.KeyRight:
		v.stepFile(1)
	case fyne.KeyLeft:
		v.stepFile(-1)
	}
}

// stepFile moves through the playlist, wrapping at both ends.
func (v *SlideView) stepFile(step int) {
	n := len(v.session.Paths)
	if n < 2 {
		return
	}
	next := (v.session.Current + step + n) % n
	if err := v.session.ChangeFile(next); err != nil {
		log.Printf("change file: %v", err)
	}
	v.raster.Refresh()
}

// CreateRenderer implements fyne.Widget.
func (v *SlideView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.raster)
}
