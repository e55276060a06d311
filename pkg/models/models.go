// Package models holds the records passed between pipeline stages.
package models

import (
	"inatphotos/pkg/inaturalist"
	"inatphotos/pkg/storage"
)

// NoCollectorNumber is used when an observation has no "Collector Number" field
const NoCollectorNumber = "No_Collector_Number"

// PhotoRecord is one resolved photo. It is built by the resolver and
// read, never modified, by the metadata writer and the image fetcher.
type PhotoRecord struct {
	// ObservationID comes from the observation_photos entry
	ObservationID string
	// Photo is the nested photo object as returned by the API
	Photo inaturalist.Photo
	// OriginalSizeURL is Photo.LargeURL pointing at the original size, or ""
	OriginalSizeURL string
	CollectorNumber string
	// PhotoIdentifier is a sequence letter, or the raw photo id when
	// CollectorNumber is NoCollectorNumber
	PhotoIdentifier string
}

// ImageFileName is the name the photo is saved under
func (r PhotoRecord) ImageFileName() string {
	return storage.FileName(r.CollectorNumber, r.PhotoIdentifier)
}

// HasImage reports whether there is anything to download
func (r PhotoRecord) HasImage() bool {
	return r.OriginalSizeURL != ""
}
