// Package resolver turns observation ids into photo records by querying the
// observation detail endpoint once per observation.
package resolver

import (
	"context"
	"fmt"
	"strconv"

	"inatphotos/pkg/inaturalist"
	"inatphotos/pkg/logger"
	"inatphotos/pkg/models"
	"inatphotos/pkg/ratelimit"
)

// ObservationFetcher fetches observation details
type ObservationFetcher interface {
	FetchObservation(ctx context.Context, observationID string) (*inaturalist.Observation, error)
}

// Progress receives resolver progress for console output
type Progress interface {
	ResolveStarted(observations int)
	ObservationResolved(done, photos int)
	ResolveCompleted(done, photos int)
}

// Resolver fetches observations in order and builds photo records
type Resolver struct {
	client    ObservationFetcher
	limiter   ratelimit.Limiter
	sequencer *Sequencer
	progress  Progress
	logger    logger.Logger
}

// New creates a Resolver. A nil sequencer starts a fresh one; pass a shared
// sequencer to keep letter assignment going across batches.
func New(client ObservationFetcher, limiter ratelimit.Limiter, sequencer *Sequencer, progress Progress, log logger.Logger) *Resolver {
	if limiter == nil {
		limiter = ratelimit.PerSecond(0)
	}
	if sequencer == nil {
		sequencer = NewSequencer()
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Resolver{
		client:    client,
		limiter:   limiter,
		sequencer: sequencer,
		progress:  progress,
		logger:    log,
	}
}

// Sequencer returns the letter sequencer owned by the resolver
func (r *Resolver) Sequencer() *Sequencer {
	return r.sequencer
}

// Resolve fetches every observation in ids, in order, and returns one record
// per photo in visit order. The first failure stops the batch.
func (r *Resolver) Resolve(ctx context.Context, ids []string) ([]models.PhotoRecord, error) {
	if r.progress != nil {
		r.progress.ResolveStarted(len(ids))
	}

	var records []models.PhotoRecord
	for i, id := range ids {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("resolving observation %s: %w", id, err)
		}

		obs, err := r.client.FetchObservation(ctx, id)
		if err != nil {
			r.logger.WithError(err).WithFields(map[string]interface{}{
				"observation_id": id,
				"processed":      i,
				"remaining":      len(ids) - i,
			}).Error("Failed to fetch observation")
			return nil, fmt.Errorf("fetching observation %s: %w", id, err)
		}

		photos := r.ResolveObservation(id, obs)
		records = append(records, photos...)

		r.logger.DebugWithFields("Resolved observation", map[string]interface{}{
			"observation_id":   id,
			"photos":           len(photos),
			"collector_number": CollectorNumber(obs),
		})

		if r.progress != nil {
			r.progress.ObservationResolved(i+1, len(records))
		}
	}

	if r.progress != nil {
		r.progress.ResolveCompleted(len(ids), len(records))
	}
	logger.LogStageProgress(r.logger, "resolve", len(ids), len(ids))

	return records, nil
}

// ResolveObservation builds the records for one fetched observation.
// queriedID is used when a photo entry does not carry its observation id.
func (r *Resolver) ResolveObservation(queriedID string, obs *inaturalist.Observation) []models.PhotoRecord {
	collectorNumber := CollectorNumber(obs)

	records := make([]models.PhotoRecord, 0, len(obs.ObservationPhotos))
	for _, op := range obs.ObservationPhotos {
		observationID := queriedID
		if op.ObservationID != nil {
			observationID = strconv.FormatInt(*op.ObservationID, 10)
		}

		record := models.PhotoRecord{
			ObservationID:   observationID,
			Photo:           op.Photo,
			OriginalSizeURL: OriginalSizeURL(op.Photo.LargeURL),
			CollectorNumber: collectorNumber,
		}

		if collectorNumber == models.NoCollectorNumber {
			record.PhotoIdentifier = strconv.FormatInt(op.Photo.ID, 10)
		} else {
			record.PhotoIdentifier = r.sequencer.Next(collectorNumber)
		}

		records = append(records, record)
	}
	return records
}
