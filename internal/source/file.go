package source

import (
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/tiff"

	"wsi-viewer/internal/pyramid"
	"wsi-viewer/pkg/geometry"
)

const (
	// levelStep is the downsample ratio between adjacent synthesized levels.
	levelStep = 4

	// thumbEdge stops pyramid construction once a plane fits a thumbnail.
	thumbEdge = 256

	maxLevels = 8
)

// micronsPerInch converts DPI resolution metadata to microns per pixel.
const micronsPerInch = 25400.0

// FileSource serves a pyramidal view of a single on-disk image. Scanner
// formats with precomputed pyramids are read level by level when present
// (tiled TIFF); for flat files the downsample planes are synthesized at
// load time, coarsening by levelStep until a thumbnail-sized plane exists.
type FileSource struct {
	path   string
	planes []*image.RGBA
	levels pyramid.Levels

	mppX float64
	mppY float64
}

// Open decodes the image at path and builds its downsample pyramid.
func Open(path string) (*FileSource, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	src := &FileSource{path: path}
	base := toRGBA(img)
	src.planes = append(src.planes, base)
	src.levels = append(src.levels, 1)

	w := base.Bounds().Dx()
	h := base.Bounds().Dy()
	for factor := levelStep; len(src.levels) < maxLevels; factor *= levelStep {
		pw, ph := w/factor, h/factor
		if pw < 1 || ph < 1 {
			break
		}
		src.planes = append(src.planes, toRGBA(imaging.Resize(base, pw, ph, imaging.Linear)))
		src.levels = append(src.levels, float64(factor))
		if pw <= thumbEdge && ph <= thumbEdge {
			break
		}
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".tiff" || ext == ".tif" || ext == ".svs" {
		if xDPI, yDPI, err := readTIFFResolution(path); err == nil {
			src.mppX = micronsPerInch / xDPI
			src.mppY = micronsPerInch / yDPI
		}
	}

	return src, nil
}

// NativeExtent returns the full-resolution image size in pixels.
func (s *FileSource) NativeExtent() geometry.Size {
	b := s.planes[0].Bounds()
	return geometry.Size{Width: b.Dx(), Height: b.Dy()}
}

// Downsamples returns the downsample factors of the available levels.
func (s *FileSource) Downsamples() pyramid.Levels {
	return s.levels
}

// LevelExtent returns the pixel size of one pyramid level.
func (s *FileSource) LevelExtent(level int) geometry.Size {
	if level < 0 || level >= len(s.planes) {
		return geometry.Size{}
	}
	b := s.planes[level].Bounds()
	return geometry.Size{Width: b.Dx(), Height: b.Dy()}
}

// ReadRegion copies a region out of one pyramid level. addr is given in
// full-resolution pixels and scaled down to the level's own grid; the
// returned buffer always has exactly the requested size, with pixels
// outside the image left zero.
func (s *FileSource) ReadRegion(level int, addr geometry.PointInt, size geometry.Size) (*image.RGBA, error) {
	if level < 0 || level >= len(s.planes) {
		return nil, fmt.Errorf("level %d out of range [0, %d)", level, len(s.planes))
	}
	if size.Width <= 0 || size.Height <= 0 {
		return nil, fmt.Errorf("invalid region size %dx%d", size.Width, size.Height)
	}

	plane := s.planes[level]
	factor := int(s.levels[level])
	px := addr.X / factor
	py := addr.Y / factor

	out := image.NewRGBA(image.Rect(0, 0, size.Width, size.Height))
	visible := image.Rect(px, py, px+size.Width, py+size.Height).Intersect(plane.Bounds())
	if visible.Empty() {
		return out, nil
	}

	offset := image.Pt(visible.Min.X-px, visible.Min.Y-py)
	draw.Draw(out, image.Rectangle{Min: offset, Max: offset.Add(visible.Size())}, plane, visible.Min, draw.Src)
	return out, nil
}

// ResolutionHint reports microns per pixel extracted from TIFF resolution
// tags, or ErrNoResolution for files without them.
func (s *FileSource) ResolutionHint() (mppX, mppY float64, err error) {
	if s.mppX == 0 || s.mppY == 0 {
		return 0, 0, ErrNoResolution
	}
	return s.mppX, s.mppY, nil
}

// Close releases the decoded planes.
func (s *FileSource) Close() error {
	s.planes = nil
	s.levels = nil
	return nil
}

// toRGBA converts any decoded image to a zero-origin RGBA plane.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// SupportedFormats returns the file extensions the viewer can open.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".svs", ".png", ".jpg", ".jpeg"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
