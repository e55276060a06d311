package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"inatphotos/internal/downloader"
	"inatphotos/pkg/resolver"
)

var (
	_ resolver.Progress   = (*Progress)(nil)
	_ downloader.Progress = (*Progress)(nil)
)

func lines(buf *bytes.Buffer) []string {
	return strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
}

func TestProgressResolveMessages(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(NewConsole(&buf, false), 0)

	p.ResolveStarted(25)
	for i := 1; i <= 25; i++ {
		p.ObservationResolved(i, i*2)
	}
	p.ResolveCompleted(25, 50)

	assert.Equal(t, []string{
		"Retrieving photo data for 25 observations",
		"10 observations processed, 20 total photo data retrieved",
		"20 observations processed, 40 total photo data retrieved",
		"Photo retrieval complete; 25 observations processed, 50 total photo data retrieved",
	}, lines(&buf))
}

func TestProgressDownloadMessages(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(NewConsole(&buf, false), 2)

	p.DownloadStarted(5)
	for i := 1; i <= 5; i++ {
		p.ImageProcessed(i, 5)
	}
	p.DownloadCompleted(4, 5)

	assert.Equal(t, []string{
		"Retrieving 5 images",
		"Retrieved 2 of 5 images",
		"Retrieved 4 of 5 images",
		"Download complete, 4 of 5 images retrieved",
	}, lines(&buf))
}

func TestProgressFileMessages(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(NewConsole(&buf, false), 10)

	p.MetadataWritten("image_metadata.csv")
	p.ImagesDirectory(true)
	p.ImagesDirectory(false)
	p.MissingInput("observations.csv")

	assert.Equal(t, []string{
		"Image metadata outputted to image_metadata.csv",
		"Created images directory.",
		"Images directory already exists, using existing images directory",
		"Could not find observations.csv. Program is now quitting.",
	}, lines(&buf))
}

func TestConsoleQuiet(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, true)

	c.Banner("v1.0.0")
	c.Println("hello")
	c.PrintInfo("Input", "observations.csv")
	c.PrintSuccess("done")
	assert.Empty(t, buf.String())

	c.PrintError("Run failed", errors.New("boom"))
	assert.Equal(t, "Run failed: boom\n", buf.String())
}

func TestConsoleNotStyledOffTerminal(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf, false)

	assert.False(t, IsInteractive(&buf))
	c.PrintInfo("Input", "observations.csv")
	c.PrintWarning("careful %d", 1)
	assert.Equal(t, "Input: observations.csv\ncareful 1\n", buf.String())
}
