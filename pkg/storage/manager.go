package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// FileName is the on-disk name of a photo: {collector number}_{photo identifier}.jpg
func FileName(collectorNumber, photoIdentifier string) string {
	return fmt.Sprintf("%s_%s.jpg", collectorNumber, photoIdentifier)
}

// Manager handles file storage operations for downloaded photos
type Manager struct {
	outputDir string
	created   bool
	saved     int
	mu        sync.Mutex
}

// NewManager creates the output directory if it doesn't exist yet
func NewManager(outputDir string) (*Manager, error) {
	info, err := os.Stat(outputDir)
	switch {
	case err == nil && !info.IsDir():
		return nil, fmt.Errorf("output path %s exists and is not a directory", outputDir)
	case err != nil && !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to inspect output directory: %w", err)
	}

	created := err != nil
	if created {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	return &Manager{
		outputDir: outputDir,
		created:   created,
	}, nil
}

// Created reports whether NewManager had to create the directory
func (m *Manager) Created() bool {
	return m.created
}

// Path returns the full path for a file name inside the output directory
func (m *Manager) Path(name string) string {
	return filepath.Join(m.outputDir, name)
}

// SavePhoto writes the photo from r under name, replacing any existing file
func (m *Manager) SavePhoto(r io.Reader, name string) error {
	if name == "" || filepath.Base(name) != name {
		return fmt.Errorf("invalid photo file name %q", name)
	}
	filename := m.Path(name)

	out, err := os.CreateTemp(m.outputDir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempFile := out.Name()

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to save photo data: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Chmod(tempFile, 0644); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to set file permissions: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.mu.Lock()
	m.saved++
	m.mu.Unlock()

	return nil
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// SavedCount returns the number of photos saved by this manager
func (m *Manager) SavedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saved
}
