package source

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"wsi-viewer/pkg/geometry"
)

// writeGradientPNG writes a w x h test image whose pixel (x, y) is
// (x%256, y%256, 0, 255), making region reads verifiable per pixel.
func writeGradientPNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), A: 255})
		}
	}
	path := filepath.Join(t.TempDir(), "gradient.png")
	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenBuildsPyramid(t *testing.T) {
	src, err := Open(writeGradientPNG(t, 512, 512))
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if got := src.NativeExtent(); got.Width != 512 || got.Height != 512 {
		t.Errorf("NativeExtent = %+v, want 512x512", got)
	}
	levels := src.Downsamples()
	if len(levels) != 2 || levels[0] != 1 || levels[1] != 4 {
		t.Fatalf("Downsamples = %v, want [1 4]", levels)
	}
	if got := src.LevelExtent(1); got.Width != 128 || got.Height != 128 {
		t.Errorf("LevelExtent(1) = %+v, want 128x128", got)
	}
}

func TestReadRegionInBounds(t *testing.T) {
	src, err := Open(writeGradientPNG(t, 512, 512))
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	region, err := src.ReadRegion(0, geometry.PointInt{X: 100, Y: 200}, geometry.Size{Width: 16, Height: 8})
	if err != nil {
		t.Fatal(err)
	}
	if b := region.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
		t.Fatalf("region size = %dx%d, want 16x8", b.Dx(), b.Dy())
	}
	got := region.RGBAAt(5, 3)
	if got.R != 105 || got.G != 203 || got.A != 255 {
		t.Errorf("pixel (5,3) = %+v, want R=105 G=203 A=255", got)
	}
}

func TestReadRegionEdgeOverhang(t *testing.T) {
	src, err := Open(writeGradientPNG(t, 512, 512))
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	// Ten columns hang over the left image edge and stay zero.
	region, err := src.ReadRegion(0, geometry.PointInt{X: -10, Y: 0}, geometry.Size{Width: 32, Height: 32})
	if err != nil {
		t.Fatal(err)
	}
	if px := region.RGBAAt(9, 0); px.A != 0 {
		t.Errorf("overhang pixel (9,0) = %+v, want zero", px)
	}
	if px := region.RGBAAt(10, 0); px.R != 0 || px.G != 0 || px.A != 255 {
		t.Errorf("first visible pixel (10,0) = %+v, want image origin", px)
	}
}

func TestReadRegionFullyOutside(t *testing.T) {
	src, err := Open(writeGradientPNG(t, 512, 512))
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	region, err := src.ReadRegion(0, geometry.PointInt{X: 200000, Y: 0}, geometry.Size{Width: 64, Height: 64})
	if err != nil {
		t.Fatal(err)
	}
	for _, px := range region.Pix {
		if px != 0 {
			t.Fatal("out-of-bounds read produced non-zero pixels")
		}
	}
}

// Region addresses are full-resolution pixels regardless of the level read.
func TestReadRegionLevelAddressScaling(t *testing.T) {
	src, err := Open(writeGradientPNG(t, 512, 512))
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	// addr 508 at factor 4 is plane column 127: one visible column left.
	region, err := src.ReadRegion(1, geometry.PointInt{X: 508, Y: 0}, geometry.Size{Width: 4, Height: 4})
	if err != nil {
		t.Fatal(err)
	}
	if px := region.RGBAAt(0, 0); px.A != 255 {
		t.Errorf("column 0 = %+v, want visible", px)
	}
	if px := region.RGBAAt(1, 0); px.A != 0 {
		t.Errorf("column 1 = %+v, want zero past the plane edge", px)
	}
}

func TestReadRegionErrors(t *testing.T) {
	src, err := Open(writeGradientPNG(t, 64, 64))
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if _, err := src.ReadRegion(7, geometry.PointInt{}, geometry.Size{Width: 8, Height: 8}); err == nil {
		t.Error("ReadRegion accepted an out-of-range level")
	}
	if _, err := src.ReadRegion(0, geometry.PointInt{}, geometry.Size{}); err == nil {
		t.Error("ReadRegion accepted a zero region size")
	}
}

func TestResolutionHintMissing(t *testing.T) {
	src, err := Open(writeGradientPNG(t, 64, 64))
	if err != nil {
		t.Fatal(err)
	}
	defer src.Close()

	if _, _, err := src.ResolutionHint(); !errors.Is(err, ErrNoResolution) {
		t.Errorf("ResolutionHint error = %v, want ErrNoResolution", err)
	}
}

// writeResolutionTIFF emits a minimal little-endian TIFF IFD carrying only
// resolution tags, enough for the metadata reader.
func writeResolutionTIFF(t *testing.T, xNum, xDen, yNum, yDen uint32, unit uint16) string {
	t.Helper()
	var buf bytes.Buffer
	le := binary.LittleEndian

	buf.WriteString("II")
	binary.Write(&buf, le, uint16(42))
	binary.Write(&buf, le, uint32(8)) // first IFD offset

	binary.Write(&buf, le, uint16(3)) // entry count
	// Rationals live after the IFD: 8 header + 2 count + 3*12 entries + 4 next.
	const xOffset, yOffset = 50, 58
	writeEntry := func(tag, fieldType uint16, value uint32) {
		binary.Write(&buf, le, tag)
		binary.Write(&buf, le, fieldType)
		binary.Write(&buf, le, uint32(1))
		binary.Write(&buf, le, value)
	}
	writeEntry(282, 5, xOffset)
	writeEntry(283, 5, yOffset)
	writeEntry(296, 3, uint32(unit))
	binary.Write(&buf, le, uint32(0)) // no next IFD

	binary.Write(&buf, le, xNum)
	binary.Write(&buf, le, xDen)
	binary.Write(&buf, le, yNum)
	binary.Write(&buf, le, yDen)

	path := filepath.Join(t.TempDir(), "res.tif")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadTIFFResolution(t *testing.T) {
	path := writeResolutionTIFF(t, 300, 1, 300, 2, 2)
	xDPI, yDPI, err := readTIFFResolution(path)
	if err != nil {
		t.Fatal(err)
	}
	if xDPI != 300 || yDPI != 150 {
		t.Errorf("resolution = (%v, %v), want (300, 150)", xDPI, yDPI)
	}
}

func TestReadTIFFResolutionCentimeters(t *testing.T) {
	path := writeResolutionTIFF(t, 100, 1, 100, 1, 3)
	xDPI, yDPI, err := readTIFFResolution(path)
	if err != nil {
		t.Fatal(err)
	}
	if xDPI != 254 || yDPI != 254 {
		t.Errorf("resolution = (%v, %v), want (254, 254)", xDPI, yDPI)
	}
}

func TestIsSupportedFormat(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"scan.svs", true},
		{"scan.TIFF", true},
		{"scan.png", true},
		{"scan.bmp", false},
		{"scan", false},
	}
	for _, tt := range tests {
		if got := IsSupportedFormat(tt.path); got != tt.want {
			t.Errorf("IsSupportedFormat(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}
