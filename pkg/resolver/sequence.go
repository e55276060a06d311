package resolver

import (
	"strings"

	"inatphotos/pkg/inaturalist"
	"inatphotos/pkg/models"
)

// CollectorNumberField is the observation field name holding the collector number
const CollectorNumberField = "Collector Number"

// Sequencer hands out photo letters per collector number: A, B, ... Z, AA, AB, ...
// It remembers every collector number it has seen for its whole lifetime, so
// photos from two observations sharing a collector number never collide.
// A Sequencer is not safe for concurrent use.
type Sequencer struct {
	assigned map[string]int
}

// NewSequencer creates an empty sequencer
func NewSequencer() *Sequencer {
	return &Sequencer{assigned: make(map[string]int)}
}

// Next returns the next unused letter for collectorNumber
func (s *Sequencer) Next(collectorNumber string) string {
	n := s.assigned[collectorNumber]
	s.assigned[collectorNumber] = n + 1
	return sequenceLetters(n)
}

// Last returns the most recently assigned letter for collectorNumber, or ""
func (s *Sequencer) Last(collectorNumber string) string {
	n, ok := s.assigned[collectorNumber]
	if !ok || n == 0 {
		return ""
	}
	return sequenceLetters(n - 1)
}

// sequenceLetters converts a zero-based index to spreadsheet-style letters
func sequenceLetters(n int) string {
	var b []byte
	for n >= 0 {
		b = append([]byte{byte('A' + n%26)}, b...)
		n = n/26 - 1
	}
	return string(b)
}

// CollectorNumber returns the observation's collector number with spaces
// replaced by underscores. The first matching field wins; a missing field
// or an empty value yields models.NoCollectorNumber.
func CollectorNumber(obs *inaturalist.Observation) string {
	if obs == nil {
		return models.NoCollectorNumber
	}
	for _, fv := range obs.ObservationFieldValues {
		if fv.ObservationField.Name != CollectorNumberField {
			continue
		}
		if fv.Value == "" {
			return models.NoCollectorNumber
		}
		return strings.ReplaceAll(fv.Value.String(), " ", "_")
	}
	return models.NoCollectorNumber
}

// OriginalSizeURL rewrites a large-size photo URL to the original size by
// replacing the first "large" with "original"
func OriginalSizeURL(largeURL string) string {
	return strings.Replace(largeURL, "large", "original", 1)
}
