package inaturalist

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Observation is the subset of the observation detail response the tool reads.
// Absent lists decode as nil and are treated as empty.
type Observation struct {
	ID                     int64                   `json:"id"`
	ObservationPhotos      []ObservationPhoto      `json:"observation_photos"`
	ObservationFieldValues []ObservationFieldValue `json:"observation_field_values"`
}

// ObservationPhoto links a photo to an observation
type ObservationPhoto struct {
	ID            int64  `json:"id"`
	ObservationID *int64 `json:"observation_id"`
	PhotoID       int64  `json:"photo_id"`
	Position      *int   `json:"position"`
	Photo         Photo  `json:"photo"`
}

// Photo holds the fields of the nested photo object.
// Missing text fields decode as "".
type Photo struct {
	ID                     int64      `json:"id"`
	UUID                   string     `json:"uuid"`
	UserID                 FlexString `json:"user_id"`
	NativePhotoID          FlexString `json:"native_photo_id"`
	SquareURL              string     `json:"square_url"`
	ThumbURL               string     `json:"thumb_url"`
	SmallURL               string     `json:"small_url"`
	MediumURL              string     `json:"medium_url"`
	LargeURL               string     `json:"large_url"`
	OriginalURL            string     `json:"original_url"`
	NativePageURL          string     `json:"native_page_url"`
	NativeUsername         string     `json:"native_username"`
	NativeRealname         string     `json:"native_realname"`
	NativeOriginalImageURL string     `json:"native_original_image_url"`
	License                FlexString `json:"license"`
	LicenseCode            string     `json:"license_code"`
	LicenseName            string     `json:"license_name"`
	LicenseURL             string     `json:"license_url"`
	Attribution            string     `json:"attribution"`
	Type                   string     `json:"type"`
	Subtype                string     `json:"subtype"`
	CreatedAt              string     `json:"created_at"`
	UpdatedAt              string     `json:"updated_at"`
}

// ObservationFieldValue is one custom field attached to an observation
type ObservationFieldValue struct {
	ID               int64            `json:"id"`
	Value            FlexString       `json:"value"`
	ObservationField ObservationField `json:"observation_field"`
}

// ObservationField names a custom field
type ObservationField struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Datatype string `json:"datatype"`
}

// FlexString decodes a JSON string, number, or boolean into its text form.
// null decodes as "".
type FlexString string

// UnmarshalJSON implements json.Unmarshaler
func (f *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case '{', '[':
		return fmt.Errorf("cannot decode %s into a text value", data)
	default:
		// numbers and booleans keep their literal text
		*f = FlexString(data)
	}
	return nil
}

// String returns the text value
func (f FlexString) String() string {
	return string(f)
}
