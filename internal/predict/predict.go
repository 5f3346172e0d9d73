// Package predict handles prediction overlays: the sidecar file convention,
// loading probability grids, and rendering them as heatmap planes the cache
// layer can blend over the image.
package predict

import (
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"wsi-viewer/internal/pyramid"
	"wsi-viewer/pkg/geometry"
)

// PredSuffix is the sidecar extension prediction overlays are stored under.
const PredSuffix = ".pred.tiff"

// PredPath maps an image path to its prediction sidecar: the extension is
// replaced by PredSuffix. A path without an extension is returned unchanged.
func PredPath(path string) string {
	dot := strings.LastIndex(path, ".")
	if dot < 0 {
		return path
	}
	return path[:dot] + PredSuffix
}

// LoadGrid reads a 2D probability grid from a NumPy file.
func LoadGrid(path string) (*mat.Dense, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open grid %s: %w", path, err)
	}
	defer f.Close()

	var m mat.Dense
	if err := npyio.Read(f, &m); err != nil {
		return nil, fmt.Errorf("failed to parse grid %s: %w", path, err)
	}
	return &m, nil
}

// SaveGrid writes a probability grid to a NumPy file.
func SaveGrid(path string, m *mat.Dense) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create grid %s: %w", path, err)
	}
	defer f.Close()
	if err := npyio.Write(f, m); err != nil {
		return fmt.Errorf("failed to write grid %s: %w", path, err)
	}
	return nil
}

// Colorize renders a probability grid as a heatmap plane of the given size.
// Values are normalized to the grid's own range and mapped from blue (low)
// to red (high); a constant grid renders fully low. The grid is scaled up
// to the target size after colorization, one grid cell per tile.
func Colorize(m *mat.Dense, size geometry.Size) *image.RGBA {
	rows, cols := m.Dims()
	data := m.RawMatrix().Data
	lo := floats.Min(data)
	hi := floats.Max(data)
	span := hi - lo

	plane := image.NewRGBA(image.Rect(0, 0, cols, rows))
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := 0.0
			if span > 0 {
				v = (m.At(y, x) - lo) / span
			}
			c := colorful.Hsv(240*(1-v), 1, 1)
			r, g, b := c.RGB255()
			i := plane.PixOffset(x, y)
			plane.Pix[i] = r
			plane.Pix[i+1] = g
			plane.Pix[i+2] = b
			plane.Pix[i+3] = 0xFF
		}
	}
	if cols == size.Width && rows == size.Height {
		return plane
	}
	return transform.Resize(plane, size.Width, size.Height, transform.NearestNeighbor)
}

// SaveOverlay writes a rendered overlay plane next to the image it belongs
// to, in the format implied by the path extension.
func SaveOverlay(img image.Image, path string) error {
	if err := imaging.Save(img, path); err != nil {
		return fmt.Errorf("failed to save overlay %s: %w", path, err)
	}
	return nil
}

// OverlaySize returns the pixel size of the overlay plane generated at the
// configured resolution level: the image extent downsampled by the first
// pyramid factor at least as coarse as the request.
func OverlaySize(extent geometry.Size, levels pyramid.Levels, resolutionLevel int) geometry.Size {
	_, level, ok := pyramid.NextGreater(levels, resolutionLevel)
	if !ok {
		level = pyramid.Coarsest(levels)
	}
	return extent.Div(level)
}
