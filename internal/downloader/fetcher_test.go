package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"inatphotos/pkg/inaturalist"
	"inatphotos/pkg/logger"
	"inatphotos/pkg/models"
	"inatphotos/pkg/ratelimit"
	"inatphotos/pkg/storage"
)

// mockOpener serves the URL back as the photo body
type mockOpener struct {
	calls  []string
	failOn string
}

func (m *mockOpener) OpenPhoto(ctx context.Context, url string) (io.ReadCloser, error) {
	m.calls = append(m.calls, url)
	if url == m.failOn {
		return nil, errors.New("connection refused")
	}
	return io.NopCloser(strings.NewReader("photo:" + url)), nil
}

// mockStorage keeps saved photos in memory
type mockStorage struct {
	saved     map[string]string
	order     []string
	saveError error
}

func newMockStorage() *mockStorage {
	return &mockStorage{saved: make(map[string]string)}
}

func (m *mockStorage) SavePhoto(r io.Reader, name string) error {
	if m.saveError != nil {
		return m.saveError
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.saved[name] = string(data)
	m.order = append(m.order, name)
	return nil
}

type recordingProgress struct {
	started   int
	processed []int
	completed [2]int
}

func (p *recordingProgress) DownloadStarted(total int)               { p.started = total }
func (p *recordingProgress) ImageProcessed(done, total int)          { p.processed = append(p.processed, done) }
func (p *recordingProgress) DownloadCompleted(downloaded, total int) { p.completed = [2]int{downloaded, total} }

func record(cn, pid, url string) models.PhotoRecord {
	return models.PhotoRecord{
		ObservationID:   "1",
		CollectorNumber: cn,
		PhotoIdentifier: pid,
		OriginalSizeURL: url,
	}
}

func TestDownloadInOrder(t *testing.T) {
	opener := &mockOpener{}
	store := newMockStorage()
	progress := &recordingProgress{}

	records := []models.PhotoRecord{
		record(models.NoCollectorNumber, "555", "https://static.example.org/photos/555/original.jpg"),
		record("AB_12", "A", "https://static.example.org/photos/601/original.jpg"),
		record("AB_12", "B", "https://static.example.org/photos/602/original.jpg"),
	}

	fetcher := NewFetcher(opener, store, nil, progress, logger.NewNopLogger())
	summary, err := fetcher.Download(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, Summary{Total: 3, Downloaded: 3, Bytes: summary.Bytes}, summary)
	assert.Positive(t, summary.Bytes)
	assert.Equal(t, []string{"No_Collector_Number_555.jpg", "AB_12_A.jpg", "AB_12_B.jpg"}, store.order)
	assert.Equal(t, "photo:https://static.example.org/photos/601/original.jpg", store.saved["AB_12_A.jpg"])

	assert.Equal(t, 3, progress.started)
	assert.Equal(t, []int{1, 2, 3}, progress.processed)
	assert.Equal(t, [2]int{3, 3}, progress.completed)
}

func TestDownloadSkipsMissingURL(t *testing.T) {
	opener := &mockOpener{}
	store := newMockStorage()
	progress := &recordingProgress{}

	records := []models.PhotoRecord{
		record("X", "A", ""),
		record("X", "B", "https://static.example.org/b.jpg"),
	}

	summary, err := NewFetcher(opener, store, nil, progress, logger.NewNopLogger()).
		Download(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Downloaded)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, []string{"https://static.example.org/b.jpg"}, opener.calls)
	assert.Equal(t, []string{"X_B.jpg"}, store.order)
	assert.Equal(t, []int{1, 2}, progress.processed)
	assert.Equal(t, [2]int{1, 2}, progress.completed)
}

func TestDownloadAbortsOnFirstError(t *testing.T) {
	opener := &mockOpener{failOn: "https://static.example.org/2.jpg"}
	store := newMockStorage()
	progress := &recordingProgress{}

	records := []models.PhotoRecord{
		record("X", "A", "https://static.example.org/1.jpg"),
		record("X", "B", "https://static.example.org/2.jpg"),
		record("X", "C", "https://static.example.org/3.jpg"),
	}

	summary, err := NewFetcher(opener, store, nil, progress, logger.NewNopLogger()).
		Download(context.Background(), records)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "X_B.jpg")
	assert.Contains(t, err.Error(), "connection refused")

	assert.Equal(t, 1, summary.Downloaded)
	assert.Len(t, opener.calls, 2, "no requests after the failure")
	assert.Equal(t, []string{"X_A.jpg"}, store.order)
	assert.Equal(t, [2]int{0, 0}, progress.completed, "completion not reported")
}

func TestDownloadSaveError(t *testing.T) {
	store := newMockStorage()
	store.saveError = errors.New("disk full")

	_, err := NewFetcher(&mockOpener{}, store, nil, nil, logger.NewNopLogger()).
		Download(context.Background(), []models.PhotoRecord{record("X", "A", "https://e.org/a.jpg")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestDownloadEmpty(t *testing.T) {
	progress := &recordingProgress{}
	summary, err := NewFetcher(&mockOpener{}, newMockStorage(), nil, progress, logger.NewNopLogger()).
		Download(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{}, summary)
	assert.Equal(t, [2]int{0, 0}, progress.completed)
}

func TestDownloadCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opener := &mockOpener{}
	limiter := ratelimit.NewTokenBucket(1, time.Hour)
	require.True(t, limiter.Allow())

	_, err := NewFetcher(opener, newMockStorage(), limiter, nil, logger.NewNopLogger()).
		Download(ctx, []models.PhotoRecord{record("X", "A", "https://e.org/a.jpg")})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, opener.calls)
}

func TestDownloadPacing(t *testing.T) {
	period := 40 * time.Millisecond
	records := []models.PhotoRecord{
		record("X", "A", "https://e.org/a.jpg"),
		record("X", "B", ""),
		record("X", "C", "https://e.org/c.jpg"),
		record("X", "D", "https://e.org/d.jpg"),
	}

	start := time.Now()
	_, err := NewFetcher(&mockOpener{}, newMockStorage(), ratelimit.NewTokenBucket(1, period), nil, logger.NewNopLogger()).
		Download(context.Background(), records)
	require.NoError(t, err)

	// three requests, the skipped record does not wait
	assert.GreaterOrEqual(t, time.Since(start), 2*period)
}

func TestDownloadAgainstHTTPServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/photos/404/original.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		fmt.Fprintf(w, "jpeg bytes for %s", r.URL.Path)
	}))
	defer server.Close()

	dir := filepath.Join(t.TempDir(), "images")
	manager, err := storage.NewManager(dir)
	require.NoError(t, err)

	client := inaturalist.NewClient(server.URL, 5*time.Second, logger.NewNopLogger())
	fetcher := NewFetcher(client, manager, nil, nil, logger.NewNopLogger())

	summary, err := fetcher.Download(context.Background(), []models.PhotoRecord{
		record("AB_12", "A", server.URL+"/photos/601/original.jpg"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Downloaded)

	data, err := os.ReadFile(filepath.Join(dir, "AB_12_A.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes for /photos/601/original.jpg", string(data))
	assert.Equal(t, int64(len(data)), summary.Bytes)

	_, err = fetcher.Download(context.Background(), []models.PhotoRecord{
		record("AB_12", "B", server.URL+"/photos/404/original.jpg"),
	})
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, "AB_12_B.jpg"))
	assert.True(t, os.IsNotExist(statErr))
}
