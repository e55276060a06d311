package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at an empty directory so user config files and .env files are not picked up
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.Equal(t, "https://www.inaturalist.org", config.INaturalist.BaseURL)
	assert.Equal(t, "observations.csv", config.Input.File)
	assert.Equal(t, "id", config.Input.IDColumn)
	assert.Equal(t, "image_metadata.csv", config.Output.MetadataFile)
	assert.Equal(t, "images", config.Output.ImagesDir)
	assert.Empty(t, config.Output.ParquetFile)
	assert.Equal(t, 1, config.RateLimit.RequestsPerSecond)
	assert.Equal(t, 10, config.Progress.Interval)
	assert.NoError(t, config.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("INATPHOTOS_BASE_URL", "http://localhost:8080")
	t.Setenv("INATPHOTOS_TIMEOUT", "5s")
	t.Setenv("INATPHOTOS_INPUT_FILE", "export.csv")
	t.Setenv("INATPHOTOS_METADATA_FILE", "out.csv")
	t.Setenv("INATPHOTOS_PARQUET_FILE", "out.parquet")
	t.Setenv("INATPHOTOS_IMAGES_DIR", "photos")
	t.Setenv("INATPHOTOS_REQUESTS_PER_SECOND", "2")
	t.Setenv("INATPHOTOS_LOG_LEVEL", "debug")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())

	assert.Equal(t, "http://localhost:8080", config.INaturalist.BaseURL)
	assert.Equal(t, 5*time.Second, config.INaturalist.Timeout)
	assert.Equal(t, "export.csv", config.Input.File)
	assert.Equal(t, "out.csv", config.Output.MetadataFile)
	assert.Equal(t, "out.parquet", config.Output.ParquetFile)
	assert.Equal(t, "photos", config.Output.ImagesDir)
	assert.Equal(t, 2, config.RateLimit.RequestsPerSecond)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadFromEnvInvalidValues(t *testing.T) {
	t.Setenv("INATPHOTOS_TIMEOUT", "soon")
	t.Setenv("INATPHOTOS_REQUESTS_PER_SECOND", "many")

	config := DefaultConfig()
	err := config.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INATPHOTOS_TIMEOUT")
	assert.Contains(t, err.Error(), "INATPHOTOS_REQUESTS_PER_SECOND")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
inaturalist:
  base_url: "https://api.example.org"
  timeout: 45s
input:
  file: "garden.csv"
output:
  images_dir: "garden_images"
rate_limit:
  requests_per_second: 3
progress:
  interval: 25
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config := DefaultConfig()
	require.NoError(t, config.LoadFromFile(path))

	assert.Equal(t, "https://api.example.org", config.INaturalist.BaseURL)
	assert.Equal(t, 45*time.Second, config.INaturalist.Timeout)
	assert.Equal(t, "garden.csv", config.Input.File)
	assert.Equal(t, "garden_images", config.Output.ImagesDir)
	assert.Equal(t, 3, config.RateLimit.RequestsPerSecond)
	assert.Equal(t, 25, config.Progress.Interval)

	// untouched sections keep defaults
	assert.Equal(t, "id", config.Input.IDColumn)
	assert.Equal(t, "image_metadata.csv", config.Output.MetadataFile)
}

func TestLoadFromFileErrors(t *testing.T) {
	config := DefaultConfig()
	assert.Error(t, config.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")))

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input: [unclosed"), 0644))
	assert.Error(t, config.LoadFromFile(path))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"empty base url", func(c *Config) { c.INaturalist.BaseURL = "" }, "base URL is required"},
		{"bad scheme", func(c *Config) { c.INaturalist.BaseURL = "ftp://x" }, "http or https"},
		{"zero timeout", func(c *Config) { c.INaturalist.Timeout = 0 }, "timeout must be positive"},
		{"no input", func(c *Config) { c.Input.File = "" }, "input file is required"},
		{"no id column", func(c *Config) { c.Input.IDColumn = "" }, "id column is required"},
		{"no metadata file", func(c *Config) { c.Output.MetadataFile = "" }, "metadata file is required"},
		{"no images dir", func(c *Config) { c.Output.ImagesDir = "" }, "images directory is required"},
		{"negative rate", func(c *Config) { c.RateLimit.RequestsPerSecond = -1 }, "cannot be negative"},
		{"zero progress", func(c *Config) { c.Progress.Interval = 0 }, "progress interval"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("zero rate disables pacing", func(t *testing.T) {
		config := DefaultConfig()
		config.RateLimit.RequestsPerSecond = 0
		assert.NoError(t, config.Validate())
	})
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()
	config.MergeCommandLineFlags(map[string]interface{}{
		"input":             "in.csv",
		"metadata":          "meta.csv",
		"parquet":           "meta.parquet",
		"images-dir":        "img",
		"base-url":          "http://127.0.0.1:9999",
		"rate-limit":        0,
		"progress-interval": 5,
		"quiet":             true,
		"log-level":         "warn",
	})

	assert.Equal(t, "in.csv", config.Input.File)
	assert.Equal(t, "meta.csv", config.Output.MetadataFile)
	assert.Equal(t, "meta.parquet", config.Output.ParquetFile)
	assert.Equal(t, "img", config.Output.ImagesDir)
	assert.Equal(t, "http://127.0.0.1:9999", config.INaturalist.BaseURL)
	assert.Equal(t, 0, config.RateLimit.RequestsPerSecond)
	assert.Equal(t, 5, config.Progress.Interval)
	assert.True(t, config.Progress.Quiet)
	assert.Equal(t, "warn", config.Logging.Level)
}

func TestLoadPrecedence(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input:\n  file: from-file.csv\noutput:\n  images_dir: file-images\n"), 0644))

	t.Setenv("INATPHOTOS_INPUT_FILE", "from-env.csv")

	config, err := Load(path, map[string]interface{}{"images-dir": "flag-images"})
	require.NoError(t, err)

	assert.Equal(t, "from-env.csv", config.Input.File)
	assert.Equal(t, "flag-images", config.Output.ImagesDir)
}

func TestLoadValidationFailure(t *testing.T) {
	isolate(t)

	_, err := Load("", map[string]interface{}{"log-level": "shout"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	original := DefaultConfig()
	original.Output.ParquetFile = "meta.parquet"
	require.NoError(t, original.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, original, loaded)
}
