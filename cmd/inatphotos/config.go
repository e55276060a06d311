package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"inatphotos/pkg/config"
	"inatphotos/pkg/ui"
)

const exampleConfig = `# inatphotos configuration file
#
# Every option can also be set with an environment variable prefixed with
# INATPHOTOS_, for example INATPHOTOS_INPUT_FILE or INATPHOTOS_IMAGES_DIR.

# Observation API
inaturalist:
  # Site the observation detail endpoint is served from
  base_url: "https://www.inaturalist.org"

  # User agent sent with every request
  user_agent: "inatphotos/1.0"

  # Per-request timeout
  timeout: 60s

# Observation export to read
input:
  file: "observations.csv"

  # Column holding the observation ids
  id_column: "id"

# Outputs
output:
  metadata_file: "image_metadata.csv"

  # Optional parquet copy of the metadata, leave empty to skip
  parquet_file: ""

  images_dir: "images"

# Request pacing, shared by API lookups and image downloads
rate_limit:
  # 0 disables pacing
  requests_per_second: 1

# Console progress
progress:
  # Print a progress line every N observations or images
  interval: 10
  quiet: false

# Logging configuration
logging:
  # Log level: debug, info, warn, error, disabled
  level: "info"

  # Log file path (optional)
  # Leave empty to log to the console
  file: ""
`

func newConfigCmd(opts *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
		Long: `Manage inatphotos configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (INATPHOTOS_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create an example configuration file",
		Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'inatphotos.yaml'
unless a different path is specified with the --config flag.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(cmd, opts)
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Long: `Show the effective configuration after combining flags, environment
variables, configuration file and defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd, opts)
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Required fields
  - Value ranges
  - Output path accessibility`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigValidate(cmd, opts)
		},
	}

	configCmd.AddCommand(initCmd, showCmd, validateCmd)
	return configCmd
}

func runConfigInit(cmd *cobra.Command, opts *rootOptions) error {
	configPath := opts.configFile
	if configPath == "" {
		configPath = "inatphotos.yaml"
	}

	console := ui.NewConsole(cmd.OutOrStdout(), false)

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s (remove it first to overwrite)", configPath)
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	console.PrintSuccess("Configuration file created: %s", configPath)
	console.Println("")
	console.Println("Next steps:")
	console.Println("1. Edit the configuration file to point at your observation export")
	console.Println("2. Run 'inatphotos config validate' to check the configuration")
	console.Println("3. Start downloading with 'inatphotos'")
	return nil
}

func runConfigShow(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := config.Load(opts.configFile, opts.flagMap(cmd))
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	console := ui.NewConsole(cmd.OutOrStdout(), false)
	console.PrintInfo("Current configuration", describeSource(opts.configFile))
	console.Println("")
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, opts *rootOptions) error {
	console := ui.NewConsole(cmd.OutOrStdout(), false)
	console.PrintInfo("Validating configuration", describeSource(opts.configFile))

	cfg, err := config.Load(opts.configFile, opts.flagMap(cmd))
	if err != nil {
		return err
	}

	var warnings []string
	if _, err := os.Stat(cfg.Input.File); os.IsNotExist(err) {
		warnings = append(warnings, fmt.Sprintf("input file %s does not exist yet", cfg.Input.File))
	}
	if cfg.RateLimit.RequestsPerSecond == 0 {
		warnings = append(warnings, "request pacing is disabled")
	} else if cfg.RateLimit.RequestsPerSecond > 1 {
		warnings = append(warnings, "pacing faster than one request per second may be throttled by iNaturalist")
	}
	if cfg.Logging.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.File), 0755); err != nil {
			return fmt.Errorf("cannot create log directory: %w", err)
		}
	}

	if len(warnings) > 0 {
		console.PrintWarning("Configuration warnings:")
		for _, w := range warnings {
			console.Println("  - %s", w)
		}
		console.Println("")
	}

	console.PrintSuccess("Configuration is valid")

	console.Println("")
	console.Println("Configuration summary:")
	console.Println("  Input: %s (column %q)", cfg.Input.File, cfg.Input.IDColumn)
	console.Println("  Metadata: %s", cfg.Output.MetadataFile)
	if cfg.Output.ParquetFile != "" {
		console.Println("  Parquet: %s", cfg.Output.ParquetFile)
	}
	console.Println("  Images directory: %s", cfg.Output.ImagesDir)
	console.Println("  Rate limit: %d requests/second", cfg.RateLimit.RequestsPerSecond)
	console.Println("  Log level: %s", cfg.Logging.Level)
	return nil
}

func describeSource(configFile string) string {
	if configFile == "" {
		return "defaults, environment and any discovered config file"
	}
	return configFile
}
