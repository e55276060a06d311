package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"inatphotos/pkg/config"
	apperrors "inatphotos/pkg/errors"
	"inatphotos/pkg/logger"
	"inatphotos/pkg/pipeline"
	"inatphotos/pkg/ui"
)

// rootOptions holds the flags shared by all commands
type rootOptions struct {
	configFile string
	logLevel   string
	quiet      bool
	verbose    bool

	input            string
	idColumn         string
	metadataFile     string
	parquetFile      string
	imagesDir        string
	baseURL          string
	rateLimit        int
	progressInterval int
}

// flagMap collects the flags the user actually set, keyed as config.MergeCommandLineFlags expects
func (o *rootOptions) flagMap(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if changed("input") {
		flags["input"] = o.input
	}
	if changed("id-column") {
		flags["id-column"] = o.idColumn
	}
	if changed("metadata") {
		flags["metadata"] = o.metadataFile
	}
	if changed("parquet") {
		flags["parquet"] = o.parquetFile
	}
	if changed("images-dir") {
		flags["images-dir"] = o.imagesDir
	}
	if changed("base-url") {
		flags["base-url"] = o.baseURL
	}
	if changed("rate-limit") {
		flags["rate-limit"] = o.rateLimit
	}
	if changed("progress-interval") {
		flags["progress-interval"] = o.progressInterval
	}
	if changed("quiet") {
		flags["quiet"] = o.quiet
	}
	if changed("log-level") {
		flags["log-level"] = o.logLevel
	}
	return flags
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "inatphotos",
		Short: "Download original-size photos for iNaturalist observations",
		Long: `inatphotos reads an iNaturalist observation export, looks up every
observation's photos, writes their metadata to a CSV file and downloads each
photo at original size.

Photos are named after the observation's "Collector Number" field:
  - AB_12_A.jpg, AB_12_B.jpg, ... for observations with a collector number
  - No_Collector_Number_<photo id>.jpg otherwise

Requests are paced at one per second by default.`,
		Example: `  # Read observations.csv and write image_metadata.csv and images/
  inatphotos

  # Use another export and output directory
  inatphotos --input export.csv --images-dir ./photos

  # Also write the metadata as parquet
  inatphotos --parquet image_metadata.parquet`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd, opts)
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default is ./inatphotos.yaml or $HOME/.inatphotos.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error, disabled)")
	cmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "suppress all output except errors")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "show log lines alongside progress output")

	// Run flags
	cmd.Flags().StringVarP(&opts.input, "input", "i", "observations.csv", "observation export to read")
	cmd.Flags().StringVar(&opts.idColumn, "id-column", "id", "column holding observation ids")
	cmd.Flags().StringVarP(&opts.metadataFile, "metadata", "m", "image_metadata.csv", "metadata CSV to write")
	cmd.Flags().StringVar(&opts.parquetFile, "parquet", "", "also write the metadata as parquet to this file")
	cmd.Flags().StringVarP(&opts.imagesDir, "images-dir", "o", "images", "directory for downloaded images")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "https://www.inaturalist.org", "iNaturalist site base URL")
	cmd.Flags().IntVar(&opts.rateLimit, "rate-limit", 1, "requests per second (0 disables pacing)")
	cmd.Flags().IntVar(&opts.progressInterval, "progress-interval", 10, "print progress every N items")

	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.AddCommand(newConfigCmd(opts))

	return cmd
}

func runDownload(cmd *cobra.Command, opts *rootOptions) error {
	cfg, err := config.Load(opts.configFile, opts.flagMap(cmd))
	if err != nil {
		return err
	}

	// Console logs would interleave with the progress lines, so unless asked
	// for they only carry warnings and errors.
	if cfg.Logging.File == "" && !opts.verbose && !cmd.Flags().Changed("log-level") && cfg.Logging.Level != "disabled" {
		cfg.Logging.Level = "warn"
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.WithField("version", version).Info("inatphotos starting")

	console := ui.NewConsole(cmd.OutOrStdout(), cfg.Progress.Quiet)
	console.Banner(version)

	p, err := pipeline.New(cfg, pipeline.Options{Output: cmd.OutOrStdout()})
	if err != nil {
		return err
	}

	summary, err := p.Run(cmd.Context())
	if errors.Is(err, apperrors.ErrMissingInput) {
		// The pipeline has already told the user; this is not a failure.
		return nil
	}
	if err != nil {
		logger.WithError(err).WithField("run_id", p.RunID()).Error("Run failed")
		console.PrintError("Run failed", err)
		return err
	}

	logger.WithFields(map[string]interface{}{
		"run_id":     summary.RunID,
		"downloaded": summary.Downloaded,
		"duration":   summary.Duration.String(),
	}).Info("inatphotos finished")

	return nil
}
