// Package metadata writes the consolidated photo metadata table.
package metadata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/parquet-go/parquet-go"
	"inatphotos/pkg/models"
)

// Columns are the output headers, in output order
var Columns = []string{
	"observation_id",
	"photo_id",
	"collector_number",
	"photo_identifier",
	"created_at",
	"updated_at",
	"inaturalist_page_url",
	"inaturalist_username",
	"license",
	"subtype",
	"original_image_url",
	"license_code",
	"attribution",
	"license_name",
	"license_url",
	"type",
	"image_url",
}

// Row is one line of the metadata table.
// Field order matches Columns.
type Row struct {
	ObservationID       string `parquet:"observation_id"`
	PhotoID             string `parquet:"photo_id"`
	CollectorNumber     string `parquet:"collector_number"`
	PhotoIdentifier     string `parquet:"photo_identifier"`
	CreatedAt           string `parquet:"created_at"`
	UpdatedAt           string `parquet:"updated_at"`
	INaturalistPageURL  string `parquet:"inaturalist_page_url"`
	INaturalistUsername string `parquet:"inaturalist_username"`
	License             string `parquet:"license"`
	Subtype             string `parquet:"subtype"`
	OriginalImageURL    string `parquet:"original_image_url"`
	LicenseCode         string `parquet:"license_code"`
	Attribution         string `parquet:"attribution"`
	LicenseName         string `parquet:"license_name"`
	LicenseURL          string `parquet:"license_url"`
	Type                string `parquet:"type"`
	ImageURL            string `parquet:"image_url"`
}

// FromRecord projects a photo record onto the output columns.
// The API's native_* fields are renamed to the output-facing names.
func FromRecord(rec models.PhotoRecord) Row {
	p := rec.Photo
	return Row{
		ObservationID:       rec.ObservationID,
		PhotoID:             strconv.FormatInt(p.ID, 10),
		CollectorNumber:     rec.CollectorNumber,
		PhotoIdentifier:     rec.PhotoIdentifier,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
		INaturalistPageURL:  p.NativePageURL,
		INaturalistUsername: p.NativeUsername,
		License:             p.License.String(),
		Subtype:             p.Subtype,
		OriginalImageURL:    p.NativeOriginalImageURL,
		LicenseCode:         p.LicenseCode,
		Attribution:         p.Attribution,
		LicenseName:         p.LicenseName,
		LicenseURL:          p.LicenseURL,
		Type:                p.Type,
		ImageURL:            rec.OriginalSizeURL,
	}
}

// Values returns the row's cells in Columns order
func (r Row) Values() []string {
	return []string{
		r.ObservationID,
		r.PhotoID,
		r.CollectorNumber,
		r.PhotoIdentifier,
		r.CreatedAt,
		r.UpdatedAt,
		r.INaturalistPageURL,
		r.INaturalistUsername,
		r.License,
		r.Subtype,
		r.OriginalImageURL,
		r.LicenseCode,
		r.Attribution,
		r.LicenseName,
		r.LicenseURL,
		r.Type,
		r.ImageURL,
	}
}

// Rows projects all records, keeping their order
func Rows(records []models.PhotoRecord) []Row {
	rows := make([]Row, len(records))
	for i, rec := range records {
		rows[i] = FromRecord(rec)
	}
	return rows
}

// WriteCSV writes the header and one row per record to w
func WriteCSV(w io.Writer, records []models.PhotoRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, rec := range records {
		if err := cw.Write(FromRecord(rec).Values()); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the metadata table to path, replacing any existing file
func WriteCSVFile(path string, records []models.PhotoRecord) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteCSV(w, records)
	})
}

// WriteParquetFile writes the same table as WriteCSVFile in parquet format
func WriteParquetFile(path string, records []models.PhotoRecord) error {
	return writeFile(path, func(w io.Writer) error {
		pw := parquet.NewGenericWriter[Row](w)
		if _, err := pw.Write(Rows(records)); err != nil {
			pw.Close()
			return fmt.Errorf("failed to write parquet rows: %w", err)
		}
		if err := pw.Close(); err != nil {
			return fmt.Errorf("failed to finish parquet file: %w", err)
		}
		return nil
	})
}

// writeFile creates path's directory and streams content into it
func writeFile(path string, content func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := content(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	return nil
}
