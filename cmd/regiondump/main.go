// Command regiondump extracts a region of a pyramidal image and writes it
// to a PNG, using the same fetch path as the viewer cache.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"os"

	"wsi-viewer/internal/cache"
	"wsi-viewer/internal/source"
	"wsi-viewer/pkg/geometry"
)

func main() {
	imagePath := flag.String("image", "", "Path to the pyramidal image")
	level := flag.Int("level", 1, "Downsample factor to read at")
	x := flag.Float64("x", 0, "Region left edge in full-resolution pixels")
	y := flag.Float64("y", 0, "Region top edge in full-resolution pixels")
	width := flag.Int("w", 512, "Region width in level pixels")
	height := flag.Int("h", 512, "Region height in level pixels")
	out := flag.String("o", "region.png", "Output PNG path")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: regiondump -image <path> [-level 1] [-x 0] [-y 0] [-w 512] [-h 512] [-o region.png]")
		os.Exit(1)
	}

	src, err := source.Open(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open image: %v\n", err)
		os.Exit(1)
	}
	defer src.Close()

	extent := src.NativeExtent()
	levels := src.Downsamples()
	fmt.Printf("Loaded %s: %dx%d pixels, levels %v\n", *imagePath, extent.Width, extent.Height, levels)

	// The fetcher addresses regions by their center in full-resolution
	// pixels; translate the top-left request accordingly.
	lvl := float64(*level)
	args := cache.RegionArgs{
		Level:      *level,
		MaxExtents: extent,
		CacheSize:  geometry.Size{Width: *width, Height: *height},
		OffsetX:    *x + float64(*width)/2*lvl,
		OffsetY:    *y + float64(*height)/2*lvl,
		Levels:     levels,
		Path:       *imagePath,
	}

	region, err := cache.GetRegion(src, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read region: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Create(*out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	if err := png.Encode(f, region); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to encode PNG: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %dx%d region to %s\n", *width, *height, *out)
}
