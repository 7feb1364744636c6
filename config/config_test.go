package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/mathfind/feature"
	"github.com/tsawler/mathfind/segment"
)

func TestDefaultMatchesComponents(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())

	assert.Equal(t, feature.DefaultGeometry(), c.FeatureGeometry())
	assert.Equal(t, segment.DefaultConfig(), c.Segment(nil))

	fc := c.Feature(nil)
	assert.Equal(t, -6.0, fc.CertaintyThreshold)
	assert.Equal(t, "./features", fc.FeatureDir)
	assert.Equal(t, "0.0.0.0:9030", c.Addr())
	assert.Equal(t, "/api/v1", c.Server.BasePath)
}

func TestParse(t *testing.T) {
	t.Setenv("MATHFIND_TEST_DIR", "/tmp/feat")

	c, err := Parse([]byte(`
certainty_threshold: -4
merge_recursions: 3
feature_dir: ${MATHFIND_TEST_DIR}
debug: true
geometry:
  script_ratio: 0.5
ocr:
  enabled: false
server:
  port: 8080
  rate_limit: 10
`))
	require.NoError(t, err)

	assert.Equal(t, -4.0, c.CertaintyThreshold)
	assert.Equal(t, 3, c.MergeRecursions)
	assert.Equal(t, "/tmp/feat", c.FeatureDir)
	assert.True(t, c.Debug)
	assert.Equal(t, 0.5, c.Geometry.ScriptRatio)
	assert.Equal(t, 1.0, c.Geometry.HorizontalReach, "unset keys keep defaults")
	assert.False(t, c.OCR.Enabled)
	assert.Equal(t, "eng", c.OCR.Language)
	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, 10, c.Server.RateLimit)
	assert.Equal(t, 4, c.Server.MaxConcurrent)
}

func TestParseEmpty(t *testing.T) {
	c, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("merge_recursion: 3\n"))
	require.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{"HOST": "127.0.0.1", "PORT": "9999", "BASEPATH": ""}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	c := Default()
	require.NoError(t, c.ApplyEnv(lookup))
	assert.Equal(t, "127.0.0.1:9999", c.Addr())
	assert.Equal(t, "", c.Server.BasePath)

	env["PORT"] = "http"
	require.ErrorIs(t, c.ApplyEnv(lookup), ErrInvalid)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"positive threshold", func(c *Config) { c.CertaintyThreshold = 1 }},
		{"negative recursions", func(c *Config) { c.MergeRecursions = -1 }},
		{"zero min members", func(c *Config) { c.MinRegionMembers = 0 }},
		{"zero component pixels", func(c *Config) { c.MinComponentPixels = 0 }},
		{"zero dpi", func(c *Config) { c.DPI = 0 }},
		{"zero reach", func(c *Config) { c.Geometry.VerticalReach = 0 }},
		{"negative tolerance", func(c *Config) { c.Geometry.BaselineTolerance = -0.1 }},
		{"script ratio above one", func(c *Config) { c.Geometry.ScriptRatio = 1.5 }},
		{"flat bar aspect", func(c *Config) { c.Geometry.BarAspect = 0.5 }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"no concurrency", func(c *Config) { c.Server.MaxConcurrent = 0 }},
		{"negative rate", func(c *Config) { c.Server.RateLimit = -1 }},
		{"no upload size", func(c *Config) { c.Server.MaxUploadMB = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(&c)
			require.ErrorIs(t, c.Validate(), ErrInvalid)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("HOST", "")
	t.Setenv("PORT", "7000")
	t.Setenv("BASEPATH", "/math")

	path := filepath.Join(t.TempDir(), "mathfind.yaml")
	require.NoError(t, os.WriteFile(path, []byte("min_region_members: 1\n"), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.MinRegionMembers)
	assert.Equal(t, "0.0.0.0:7000", c.Addr())
	assert.Equal(t, "/math", c.Server.BasePath)
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("PORT", "")

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("merge_recursions: -2\n"), 0o644))
	_, err = Load(path)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv("HOST", "")
	t.Setenv("PORT", "")
	t.Setenv("BASEPATH", "/api/v1")

	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}
