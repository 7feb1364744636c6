// Package config loads the detector and server configuration from YAML.
//
// Files are expanded with os.ExpandEnv before decoding, unknown keys are
// rejected, and every key that is absent keeps its default. The server's
// address can also be overridden with the HOST, PORT and BASEPATH
// environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/mathfind/feature"
	"github.com/tsawler/mathfind/segment"
)

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("invalid configuration")

// Config holds every tunable of the detector, the OCR adapter and the HTTP
// service.
type Config struct {
	CertaintyThreshold float64  `yaml:"certainty_threshold"`
	MergeRecursions    int      `yaml:"merge_recursions"`
	MinRegionMembers   int      `yaml:"min_region_members"`
	MinComponentPixels int      `yaml:"min_component_pixels"`
	DPI                int      `yaml:"dpi"`
	FeatureDir         string   `yaml:"feature_dir"`
	Debug              bool     `yaml:"debug"`
	Geometry           Geometry `yaml:"geometry"`
	OCR                OCR      `yaml:"ocr"`
	Server             Server   `yaml:"server"`
}

// Geometry holds the spatial tolerances shared by the extractors and the
// segmentor.
type Geometry struct {
	HorizontalReach   float64 `yaml:"horizontal_reach"`
	VerticalReach     float64 `yaml:"vertical_reach"`
	BaselineTolerance float64 `yaml:"baseline_tolerance"`
	ScriptRatio       float64 `yaml:"script_ratio"`
	BarAspect         float64 `yaml:"bar_aspect"`
}

type OCR struct {
	Enabled  bool   `yaml:"enabled"`
	Language string `yaml:"language"`
}

// Server configures the HTTP service. RateLimit is in requests per second;
// zero disables limiting.
type Server struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	BasePath      string `yaml:"base_path"`
	MaxConcurrent int    `yaml:"max_concurrent"`
	RateLimit     int    `yaml:"rate_limit"`
	MaxUploadMB   int    `yaml:"max_upload_mb"`
}

// Default returns the default configuration.
func Default() Config {
	g := feature.DefaultGeometry()
	s := segment.DefaultConfig()
	return Config{
		CertaintyThreshold: s.CertaintyThreshold,
		MergeRecursions:    s.MergeRecursions,
		MinRegionMembers:   s.MinRegionMembers,
		MinComponentPixels: 4,
		DPI:                300,
		FeatureDir:         feature.DefaultConfig().FeatureDir,
		Geometry: Geometry{
			HorizontalReach:   g.HorizontalReach,
			VerticalReach:     g.VerticalReach,
			BaselineTolerance: g.BaselineTolerance,
			ScriptRatio:       g.ScriptRatio,
			BarAspect:         g.BarAspect,
		},
		OCR: OCR{
			Enabled:  true,
			Language: "eng",
		},
		Server: Server{
			Host:          "0.0.0.0",
			Port:          9030,
			BasePath:      "/api/v1",
			MaxConcurrent: 4,
			MaxUploadMB:   32,
		},
	}
}

// Load reads the configuration file at path. An empty path yields the
// defaults. Environment overrides are applied and the result is validated.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return c, err
		}
		c, err = Parse(data)
		if err != nil {
			return c, fmt.Errorf("%s: %w", path, err)
		}
	}
	if err := c.ApplyEnv(os.LookupEnv); err != nil {
		return c, err
	}
	return c, c.Validate()
}

// Parse decodes YAML configuration data over the defaults.
func Parse(data []byte) (Config, error) {
	c := Default()
	data = []byte(os.ExpandEnv(string(data)))

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return c, err
	}
	return c, nil
}

// ApplyEnv overrides the server address from HOST, PORT and BASEPATH.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("HOST"); ok && v != "" {
		c.Server.Host = v
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PORT %q", ErrInvalid, v)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("BASEPATH"); ok {
		c.Server.BasePath = v
	}
	return nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch {
	case c.CertaintyThreshold > 0:
		return fmt.Errorf("%w: certainty_threshold must not be positive", ErrInvalid)
	case c.MergeRecursions < 0:
		return fmt.Errorf("%w: merge_recursions must not be negative", ErrInvalid)
	case c.MinRegionMembers < 1:
		return fmt.Errorf("%w: min_region_members must be at least 1", ErrInvalid)
	case c.MinComponentPixels < 1:
		return fmt.Errorf("%w: min_component_pixels must be at least 1", ErrInvalid)
	case c.DPI <= 0:
		return fmt.Errorf("%w: dpi must be positive", ErrInvalid)
	case c.Geometry.HorizontalReach <= 0 || c.Geometry.VerticalReach <= 0:
		return fmt.Errorf("%w: geometry reach must be positive", ErrInvalid)
	case c.Geometry.BaselineTolerance < 0:
		return fmt.Errorf("%w: geometry.baseline_tolerance must not be negative", ErrInvalid)
	case c.Geometry.ScriptRatio <= 0 || c.Geometry.ScriptRatio > 1:
		return fmt.Errorf("%w: geometry.script_ratio must be in (0, 1]", ErrInvalid)
	case c.Geometry.BarAspect < 1:
		return fmt.Errorf("%w: geometry.bar_aspect must be at least 1", ErrInvalid)
	case c.Server.Port < 0 || c.Server.Port > 65535:
		return fmt.Errorf("%w: server.port %d", ErrInvalid, c.Server.Port)
	case c.Server.MaxConcurrent < 1:
		return fmt.Errorf("%w: server.max_concurrent must be at least 1", ErrInvalid)
	case c.Server.RateLimit < 0:
		return fmt.Errorf("%w: server.rate_limit must not be negative", ErrInvalid)
	case c.Server.MaxUploadMB < 1:
		return fmt.Errorf("%w: server.max_upload_mb must be at least 1", ErrInvalid)
	}
	return nil
}

// Addr returns the server listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// FeatureGeometry converts the geometry settings.
func (c Config) FeatureGeometry() feature.Geometry {
	return feature.Geometry{
		HorizontalReach:   c.Geometry.HorizontalReach,
		VerticalReach:     c.Geometry.VerticalReach,
		BaselineTolerance: c.Geometry.BaselineTolerance,
		ScriptRatio:       c.Geometry.ScriptRatio,
		BarAspect:         c.Geometry.BarAspect,
	}
}

// Feature returns the extractor configuration.
func (c Config) Feature(logger *slog.Logger) feature.Config {
	return feature.Config{
		CertaintyThreshold: c.CertaintyThreshold,
		Geometry:           c.FeatureGeometry(),
		FeatureDir:         c.FeatureDir,
		Debug:              c.Debug,
		Logger:             logger,
	}
}

// Segment returns the segmentor configuration.
func (c Config) Segment(logger *slog.Logger) segment.Config {
	return segment.Config{
		CertaintyThreshold: c.CertaintyThreshold,
		MergeRecursions:    c.MergeRecursions,
		MinRegionMembers:   c.MinRegionMembers,
		Geometry:           c.FeatureGeometry(),
		Logger:             logger,
	}
}
