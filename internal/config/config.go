// Package config handles configuration loading and shared data structures.
package config

import (
	"os"

	"github.com/woozymasta/kmzgen/internal/feature"

	"gopkg.in/yaml.v3"
)

// Defaults used when a value is missing from the configuration file.
const (
	DefaultDataDir     = "public/mapa"
	DefaultOutputDir   = "public/kmz"
	DefaultEncoding    = "windows-1252"
	DefaultConcurrency = 4
	DefaultPreviewSize = 512
)

// Config represents the root configuration file structure.
type Config struct {
	Enrichments []Enrichment `yaml:"enrichments,omitempty"`

	DataDir          string  `yaml:"data_dir,omitempty"`
	OutputDir        string  `yaml:"output_dir,omitempty"`
	DefaultEncoding  string  `yaml:"default_encoding,omitempty"`
	Preview          Preview `yaml:"preview,omitempty"`
	Concurrency      int     `yaml:"concurrency,omitempty"`
	StrictProjection bool    `yaml:"strict_projection,omitempty"`
	Minify           bool    `yaml:"minify,omitempty"`
	GeoJSON          bool    `yaml:"geojson,omitempty"`
}

// Enrichment derives label fields for a single dataset from the first
// non-empty candidate key.
type Enrichment struct {
	Dataset string   `yaml:"dataset"`
	Keys    []string `yaml:"keys"`
	Targets []string `yaml:"targets,omitempty"`
}

// Preview controls the WebP thumbnail written next to each archive.
type Preview struct {
	Size    int  `yaml:"size,omitempty"`
	Enabled bool `yaml:"enabled"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the YAML configuration file from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Rules converts the enrichment section into enricher rules.
func (c *Config) Rules() []feature.Rule {
	rules := make([]feature.Rule, 0, len(c.Enrichments))
	for _, e := range c.Enrichments {
		rules = append(rules, feature.Rule{
			Dataset: e.Dataset,
			Keys:    e.Keys,
			Targets: e.Targets,
		})
	}
	return rules
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.DefaultEncoding == "" {
		c.DefaultEncoding = DefaultEncoding
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Preview.Size <= 0 {
		c.Preview.Size = DefaultPreviewSize
	}

	// An explicit empty list disables enrichment.
	if c.Enrichments == nil {
		for _, r := range feature.DefaultRules() {
			c.Enrichments = append(c.Enrichments, Enrichment{
				Dataset: r.Dataset,
				Keys:    r.Keys,
				Targets: r.Targets,
			})
		}
	}

	for i := range c.Enrichments {
		if len(c.Enrichments[i].Targets) == 0 {
			c.Enrichments[i].Targets = feature.DefaultTargets()
		}
	}
}
