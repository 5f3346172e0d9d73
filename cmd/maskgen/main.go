// Command maskgen renders a prediction probability grid into the heatmap
// sidecar the viewer blends over the image.
package main

import (
	"flag"
	"fmt"
	"os"

	"wsi-viewer/internal/config"
	"wsi-viewer/internal/predict"
	"wsi-viewer/internal/source"
)

func main() {
	configPath := flag.String("config", config.DefaultFile, "path to the viewer configuration")
	gridPath := flag.String("grid", "", "Path to the probability grid (.npy)")
	imagePath := flag.String("image", "", "Path to the image the grid belongs to")
	flag.Parse()

	if *gridPath == "" || *imagePath == "" {
		fmt.Println("Usage: maskgen -grid <grid.npy> -image <path> [-config file]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	src, err := source.Open(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open image: %v\n", err)
		os.Exit(1)
	}
	extent := src.NativeExtent()
	levels := src.Downsamples()
	src.Close()

	grid, err := predict.LoadGrid(*gridPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load grid: %v\n", err)
		os.Exit(1)
	}
	rows, cols := grid.Dims()

	size := predict.OverlaySize(extent, levels, cfg.PredictionResolutionLevel)
	plane := predict.Colorize(grid, size)

	outPath := predict.PredPath(*imagePath)
	if err := predict.SaveOverlay(plane, outPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save overlay: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Rendered %dx%d grid to %dx%d overlay %s\n", cols, rows, size.Width, size.Height, outPath)
}
