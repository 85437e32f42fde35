package capacity

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

//go:embed region_defaults.yaml
var regionDefaults []byte

// RegionConfig carries the district alias table and the neighbor-district
// adjacency lists. Both are data about one country's administrative naming,
// so they live in configuration rather than code; the embedded defaults
// cover the Karnataka-centric dataset the app ships with.
type RegionConfig struct {
	Aliases   map[string]string   `yaml:"aliases"`
	Neighbors map[string][]string `yaml:"neighbors"`
}

// LoadRegionConfig reads a region config YAML file, falling back to the
// embedded defaults when path is empty.
func LoadRegionConfig(path string) (RegionConfig, error) {
	raw := regionDefaults
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return RegionConfig{}, fmt.Errorf("reading region config: %w", err)
		}
		raw = b
	}

	var cfg RegionConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return RegionConfig{}, fmt.Errorf("decoding region config: %w", err)
	}
	if cfg.Aliases == nil {
		cfg.Aliases = map[string]string{}
	}
	if cfg.Neighbors == nil {
		cfg.Neighbors = map[string][]string{}
	}
	return cfg, nil
}
