package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable the tool reads
const EnvPrefix = "INATPHOTOS_"

// Config holds all configuration options for the photo downloader
type Config struct {
	// Remote observation API
	INaturalist INaturalistConfig `yaml:"inaturalist" json:"inaturalist"`

	// Observation export to read
	Input InputConfig `yaml:"input" json:"input"`

	// Metadata and image destinations
	Output OutputConfig `yaml:"output" json:"output"`

	// Request pacing
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Console progress reporting
	Progress ProgressConfig `yaml:"progress" json:"progress"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// INaturalistConfig holds settings for the observation detail endpoint
type INaturalistConfig struct {
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// InputConfig describes the observation export
type InputConfig struct {
	File     string `yaml:"file" json:"file"`
	IDColumn string `yaml:"id_column" json:"id_column"`
}

// OutputConfig holds output file and directory configuration
type OutputConfig struct {
	MetadataFile string `yaml:"metadata_file" json:"metadata_file"`
	// ParquetFile is optional; when set the metadata table is also written as parquet.
	ParquetFile string `yaml:"parquet_file" json:"parquet_file"`
	ImagesDir   string `yaml:"images_dir" json:"images_dir"`
}

// RateLimitConfig holds request pacing configuration.
// One token is spent per API request or image download.
type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second" json:"requests_per_second"`
}

// ProgressConfig controls how often progress lines are printed
type ProgressConfig struct {
	Interval int  `yaml:"interval" json:"interval"`
	Quiet    bool `yaml:"quiet" json:"quiet"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with the values the tool has always used
func DefaultConfig() *Config {
	return &Config{
		INaturalist: INaturalistConfig{
			BaseURL:   "https://www.inaturalist.org",
			UserAgent: "inatphotos/1.0",
			Timeout:   60 * time.Second,
		},
		Input: InputConfig{
			File:     "observations.csv",
			IDColumn: "id",
		},
		Output: OutputConfig{
			MetadataFile: "image_metadata.csv",
			ImagesDir:    "images",
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 1,
		},
		Progress: ProgressConfig{
			Interval: 10,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from INATPHOTOS_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	if v := os.Getenv(EnvPrefix + "BASE_URL"); v != "" {
		c.INaturalist.BaseURL = v
	}
	if v := os.Getenv(EnvPrefix + "USER_AGENT"); v != "" {
		c.INaturalist.UserAgent = v
	}
	if v := os.Getenv(EnvPrefix + "TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sTIMEOUT: %w", EnvPrefix, err))
		} else {
			c.INaturalist.Timeout = d
		}
	}

	if v := os.Getenv(EnvPrefix + "INPUT_FILE"); v != "" {
		c.Input.File = v
	}
	if v := os.Getenv(EnvPrefix + "ID_COLUMN"); v != "" {
		c.Input.IDColumn = v
	}

	if v := os.Getenv(EnvPrefix + "METADATA_FILE"); v != "" {
		c.Output.MetadataFile = v
	}
	if v := os.Getenv(EnvPrefix + "PARQUET_FILE"); v != "" {
		c.Output.ParquetFile = v
	}
	if v := os.Getenv(EnvPrefix + "IMAGES_DIR"); v != "" {
		c.Output.ImagesDir = v
	}

	if v := os.Getenv(EnvPrefix + "REQUESTS_PER_SECOND"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sREQUESTS_PER_SECOND: %w", EnvPrefix, err))
		} else {
			c.RateLimit.RequestsPerSecond = n
		}
	}

	if v := os.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvPrefix + "LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil // no config file is fine
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for a config file in the standard locations
func findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		"inatphotos.yaml",
		".inatphotos.yaml",
		".inatphotos.yml",
		filepath.Join(home, ".config", "inatphotos", "config.yaml"),
		filepath.Join(home, ".inatphotos.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.INaturalist.BaseURL == "" {
		errs = append(errs, errors.New("inaturalist base URL is required"))
	} else if !strings.HasPrefix(c.INaturalist.BaseURL, "http://") && !strings.HasPrefix(c.INaturalist.BaseURL, "https://") {
		errs = append(errs, errors.New("inaturalist base URL must be http or https"))
	}
	if c.INaturalist.Timeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	if c.Input.File == "" {
		errs = append(errs, errors.New("input file is required"))
	}
	if c.Input.IDColumn == "" {
		errs = append(errs, errors.New("id column is required"))
	}

	if c.Output.MetadataFile == "" {
		errs = append(errs, errors.New("metadata file is required"))
	}
	if c.Output.ImagesDir == "" {
		errs = append(errs, errors.New("images directory is required"))
	}

	// 0 disables pacing entirely; only useful against a local server
	if c.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("requests per second cannot be negative"))
	}

	if c.Progress.Interval <= 0 {
		errs = append(errs, errors.New("progress interval must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}

// Save writes the configuration to a YAML file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges explicitly set command line flags into the configuration.
// Keys match the long flag names of the run command.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["input"].(string); ok && v != "" {
		c.Input.File = v
	}
	if v, ok := flags["id-column"].(string); ok && v != "" {
		c.Input.IDColumn = v
	}
	if v, ok := flags["metadata"].(string); ok && v != "" {
		c.Output.MetadataFile = v
	}
	if v, ok := flags["parquet"].(string); ok && v != "" {
		c.Output.ParquetFile = v
	}
	if v, ok := flags["images-dir"].(string); ok && v != "" {
		c.Output.ImagesDir = v
	}
	if v, ok := flags["base-url"].(string); ok && v != "" {
		c.INaturalist.BaseURL = v
	}
	if v, ok := flags["rate-limit"].(int); ok && v >= 0 {
		c.RateLimit.RequestsPerSecond = v
	}
	if v, ok := flags["progress-interval"].(int); ok && v > 0 {
		c.Progress.Interval = v
	}
	if v, ok := flags["quiet"].(bool); ok {
		c.Progress.Quiet = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: command line flags > environment > .env file > config file > defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// .env files are optional
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".inatphotos.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
