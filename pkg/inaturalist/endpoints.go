package inaturalist

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// BaseURL is the public iNaturalist site
	BaseURL = "https://www.inaturalist.org"

	// ObservationEndpoint is the per-observation detail path pattern
	ObservationEndpoint = "/observations/%s.json"
)

// GetObservationURL builds the detail URL for one observation
func GetObservationURL(baseURL, observationID string) string {
	base := strings.TrimRight(baseURL, "/")
	if base == "" {
		base = BaseURL
	}
	return base + fmt.Sprintf(ObservationEndpoint, url.PathEscape(observationID))
}

