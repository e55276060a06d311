// Package downloader retrieves photo files at original size, one at a time,
// in metadata row order.
package downloader

import (
	"context"
	"fmt"
	"io"
	"time"

	"inatphotos/pkg/logger"
	"inatphotos/pkg/models"
	"inatphotos/pkg/ratelimit"
)

// DownloadJob represents a single download task
type DownloadJob struct {
	URL           string
	FileName      string
	ObservationID string
}

// DownloadResult represents the result of a download job
type DownloadResult struct {
	Job      DownloadJob
	Skipped  bool
	Error    error
	Duration time.Duration
	Size     int64
}

// PhotoOpener opens a streaming body for a photo URL
type PhotoOpener interface {
	OpenPhoto(ctx context.Context, url string) (io.ReadCloser, error)
}

// PhotoStorage interface for storing photos
type PhotoStorage interface {
	SavePhoto(r io.Reader, name string) error
}

// Progress receives download progress for console output
type Progress interface {
	DownloadStarted(total int)
	ImageProcessed(done, total int)
	DownloadCompleted(downloaded, total int)
}

// Summary counts what a download batch did
type Summary struct {
	Total      int
	Downloaded int
	Skipped    int
	Bytes      int64
}

// Fetcher downloads photos sequentially
type Fetcher struct {
	client   PhotoOpener
	storage  PhotoStorage
	limiter  ratelimit.Limiter
	progress Progress
	logger   logger.Logger
}

// NewFetcher creates a Fetcher. A nil limiter does not pace requests.
func NewFetcher(client PhotoOpener, storage PhotoStorage, limiter ratelimit.Limiter, progress Progress, log logger.Logger) *Fetcher {
	if limiter == nil {
		limiter = ratelimit.PerSecond(0)
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Fetcher{
		client:   client,
		storage:  storage,
		limiter:  limiter,
		progress: progress,
		logger:   log,
	}
}

// JobFor builds the download job for a photo record
func JobFor(rec models.PhotoRecord) DownloadJob {
	return DownloadJob{
		URL:           rec.OriginalSizeURL,
		FileName:      rec.ImageFileName(),
		ObservationID: rec.ObservationID,
	}
}

// Download fetches every record's original-size image in order. Records
// without an image URL are skipped. The first failure stops the batch and
// is returned together with the counts so far.
func (f *Fetcher) Download(ctx context.Context, records []models.PhotoRecord) (Summary, error) {
	summary := Summary{Total: len(records)}

	if f.progress != nil {
		f.progress.DownloadStarted(len(records))
	}

	for i, rec := range records {
		result := f.processJob(ctx, JobFor(rec))
		if result.Error != nil {
			f.logger.WithError(result.Error).WithFields(map[string]interface{}{
				"file":      result.Job.FileName,
				"url":       result.Job.URL,
				"processed": i,
				"remaining": len(records) - i,
			}).Error("Failed to download photo")
			return summary, result.Error
		}

		if result.Skipped {
			summary.Skipped++
		} else {
			summary.Downloaded++
			summary.Bytes += result.Size
		}

		if f.progress != nil {
			f.progress.ImageProcessed(i+1, len(records))
		}
	}

	if f.progress != nil {
		f.progress.DownloadCompleted(summary.Downloaded, summary.Total)
	}
	logger.LogStageProgress(f.logger, "download", len(records), len(records))

	return summary, nil
}

// processJob handles a single download job
func (f *Fetcher) processJob(ctx context.Context, job DownloadJob) DownloadResult {
	start := time.Now()
	result := DownloadResult{Job: job}

	if job.URL == "" {
		f.logger.DebugWithFields("No image URL, skipping", map[string]interface{}{
			"file":           job.FileName,
			"observation_id": job.ObservationID,
		})
		result.Skipped = true
		return result
	}

	if err := f.limiter.Wait(ctx); err != nil {
		result.Error = fmt.Errorf("downloading %s: %w", job.FileName, err)
		return result
	}

	body, err := f.client.OpenPhoto(ctx, job.URL)
	if err != nil {
		result.Error = fmt.Errorf("download failed for %s: %w", job.FileName, err)
		result.Duration = time.Since(start)
		return result
	}
	defer body.Close()

	counter := &countingReader{r: body}
	if err := f.storage.SavePhoto(counter, job.FileName); err != nil {
		result.Error = fmt.Errorf("save failed for %s: %w", job.FileName, err)
		result.Duration = time.Since(start)
		return result
	}

	result.Size = counter.n
	result.Duration = time.Since(start)

	f.logger.DebugWithFields("Downloaded photo", map[string]interface{}{
		"file":     job.FileName,
		"size":     result.Size,
		"duration": result.Duration,
	})

	return result
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
