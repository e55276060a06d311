// Package pipeline runs the photo download in its fixed stage order:
// read the export, resolve photos, write metadata, download images.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"inatphotos/internal/downloader"
	"inatphotos/pkg/config"
	"inatphotos/pkg/errors"
	"inatphotos/pkg/inaturalist"
	"inatphotos/pkg/logger"
	"inatphotos/pkg/metadata"
	"inatphotos/pkg/observations"
	"inatphotos/pkg/ratelimit"
	"inatphotos/pkg/resolver"
	"inatphotos/pkg/storage"
	"inatphotos/pkg/ui"
)

// Options customise how a Pipeline is wired. Zero values use the defaults.
type Options struct {
	// Logger defaults to the global logger
	Logger logger.Logger
	// Output receives console progress lines, os.Stdout by default
	Output io.Writer
	// Limiter replaces the limiter built from the rate_limit section
	Limiter ratelimit.Limiter
}

// Summary describes a finished run
type Summary struct {
	RunID        string
	Observations int
	Photos       int
	Downloaded   int
	Skipped      int
	Bytes        int64
	MetadataFile string
	ParquetFile  string
	ImagesDir    string
	Duration     time.Duration
}

// Pipeline wires the stages together for one configuration
type Pipeline struct {
	config   *config.Config
	client   *inaturalist.Client
	limiter  ratelimit.Limiter
	console  *ui.Console
	progress *ui.Progress
	logger   logger.Logger
	runID    string
}

// New creates a Pipeline for cfg
func New(cfg *config.Config, opts Options) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	runID := uuid.NewString()

	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	log = log.WithField("run_id", runID)

	client := inaturalist.NewClient(cfg.INaturalist.BaseURL, cfg.INaturalist.Timeout, log)
	if cfg.INaturalist.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.INaturalist.UserAgent)
	}

	// One limiter paces both API lookups and image downloads
	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.PerSecond(cfg.RateLimit.RequestsPerSecond)
	}

	console := ui.NewConsole(opts.Output, cfg.Progress.Quiet)

	return &Pipeline{
		config:   cfg,
		client:   client,
		limiter:  limiter,
		console:  console,
		progress: ui.NewProgress(console, cfg.Progress.Interval),
		logger:   log,
		runID:    runID,
	}, nil
}

// RunID identifies this pipeline's run in logs
func (p *Pipeline) RunID() string {
	return p.runID
}

// Run executes every stage in order. A missing input file stops the run
// before any request is made and returns an error wrapping
// errors.ErrMissingInput. Any other failure aborts the remaining stages.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{RunID: p.runID}
	defer func() {
		summary.Duration = time.Since(start)
	}()

	logger.LogComponentStart(p.logger, "pipeline", map[string]interface{}{
		"input":               p.config.Input.File,
		"metadata_file":       p.config.Output.MetadataFile,
		"parquet_file":        p.config.Output.ParquetFile,
		"images_dir":          p.config.Output.ImagesDir,
		"requests_per_second": p.config.RateLimit.RequestsPerSecond,
		"base_url":            p.client.BaseURL(),
	})

	// Read
	loader := observations.NewLoader(p.config.Input.File, p.config.Input.IDColumn, p.logger)
	if !loader.Exists() {
		p.progress.MissingInput(loader.Path())
		p.logger.WarnWithFields("Input file not found, quitting", map[string]interface{}{
			"path": loader.Path(),
		})
		return summary, fmt.Errorf("%w: %s", errors.ErrMissingInput, loader.Path())
	}

	ids, err := loader.Load()
	if err != nil {
		return summary, err
	}
	summary.Observations = len(ids)

	// Fetch and transform
	res := resolver.New(p.client, p.limiter, nil, p.progress, p.logger)
	records, err := res.Resolve(ctx, ids)
	if err != nil {
		return summary, err
	}
	summary.Photos = len(records)

	// Write
	if err := metadata.WriteCSVFile(p.config.Output.MetadataFile, records); err != nil {
		return summary, fmt.Errorf("failed to write metadata: %w", err)
	}
	summary.MetadataFile = p.config.Output.MetadataFile
	p.progress.MetadataWritten(p.config.Output.MetadataFile)

	if p.config.Output.ParquetFile != "" {
		if err := metadata.WriteParquetFile(p.config.Output.ParquetFile, records); err != nil {
			return summary, fmt.Errorf("failed to write parquet metadata: %w", err)
		}
		summary.ParquetFile = p.config.Output.ParquetFile
		p.logger.InfoWithFields("Wrote parquet metadata", map[string]interface{}{
			"path": p.config.Output.ParquetFile,
			"rows": len(records),
		})
	}

	// Download
	storageManager, err := storage.NewManager(p.config.Output.ImagesDir)
	if err != nil {
		return summary, err
	}
	summary.ImagesDir = storageManager.GetOutputDir()
	p.progress.ImagesDirectory(storageManager.Created())

	fetcher := downloader.NewFetcher(p.client, storageManager, p.limiter, p.progress, p.logger)
	result, err := fetcher.Download(ctx, records)
	summary.Downloaded = result.Downloaded
	summary.Skipped = result.Skipped
	summary.Bytes = result.Bytes
	if err != nil {
		return summary, err
	}

	p.logger.InfoWithFields("Run complete", map[string]interface{}{
		"observations": summary.Observations,
		"photos":       summary.Photos,
		"downloaded":   summary.Downloaded,
		"skipped":      summary.Skipped,
		"bytes":        summary.Bytes,
		"duration":     time.Since(start),
	})

	return summary, nil
}
