// Package observations reads the observation export that drives a run.
package observations

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"inatphotos/pkg/errors"
	"inatphotos/pkg/logger"
)

// DefaultIDColumn is the column holding observation identifiers in an iNaturalist export
const DefaultIDColumn = "id"

const utf8BOM = "\ufeff"

// Loader reads observation identifiers from a CSV export
type Loader struct {
	path     string
	idColumn string
	logger   logger.Logger
}

// NewLoader creates a loader for the export at path
func NewLoader(path, idColumn string, log logger.Logger) *Loader {
	if idColumn == "" {
		idColumn = DefaultIDColumn
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Loader{path: path, idColumn: idColumn, logger: log}
}

// Path returns the export path
func (l *Loader) Path() string {
	return l.path
}

// Exists reports whether the export is present. Anything other than
// a definite "does not exist" is left for Load to report.
func (l *Loader) Exists() bool {
	_, err := os.Stat(l.path)
	return !os.IsNotExist(err)
}

// Load returns the observation identifiers in file order.
// A missing file yields an error wrapping errors.ErrMissingInput.
func (l *Loader) Load() ([]string, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", errors.ErrMissingInput, l.path)
		}
		return nil, fmt.Errorf("failed to open observations file: %w", err)
	}
	defer f.Close()

	ids, err := l.read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", l.path, err)
	}

	l.logger.InfoWithFields("Loaded observation export", map[string]interface{}{
		"path":         l.path,
		"observations": len(ids),
	})
	return ids, nil
}

func (l *Loader) read(in io.Reader) ([]string, error) {
	r := csv.NewReader(in)
	r.FieldsPerRecord = -1
	r.ReuseRecord = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("file is empty, expected a header with column %q", l.idColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	col := -1
	for i, name := range header {
		name = strings.TrimSpace(name)
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		if name == l.idColumn {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("column %q not found in header", l.idColumn)
	}

	var ids []string
	line := 1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to parse row %d: %w", line, err)
		}

		id := ""
		if col < len(record) {
			id = strings.TrimSpace(record[col])
		}
		if id == "" {
			l.logger.WarnWithFields("Skipping row without observation id", map[string]interface{}{
				"line": line,
			})
			continue
		}
		ids = append(ids, id)
	}

	return ids, nil
}
