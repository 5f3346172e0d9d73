// Package config reads the viewer configuration from a JSON file next to
// the binary.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultFile is the configuration file looked up in the working directory.
const DefaultFile = "config.json"

// Config holds the viewer settings.
type Config struct {
	// PredictionResolutionLevel selects the pyramid level prediction
	// overlays are generated at.
	PredictionResolutionLevel int `json:"prediction_resolution_level"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{PredictionResolutionLevel: 1}
}

// Load reads the configuration from path. A missing file yields the
// defaults; a malformed file is an error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Default(), fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if cfg.PredictionResolutionLevel < 1 {
		cfg.PredictionResolutionLevel = 1
	}
	return cfg, nil
}
