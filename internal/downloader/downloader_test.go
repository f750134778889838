package downloader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "tumblrlikes/pkg/errors"
	"tumblrlikes/pkg/logger"
)

// pngHeader is enough of a PNG for content sniffing
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type mediaServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newMediaServer(t *testing.T) *mediaServer {
	t.Helper()
	ms := &mediaServer{}
	ms.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ms.hits.Add(1)
		switch r.URL.Path {
		case "/media/tumblr_abc_1280.png":
			w.Write(pngHeader)
		case "/media/clip.mp4":
			w.Header().Set("Content-Type", "video/mp4")
			w.Write([]byte("not really a video"))
		case "/media/truncated.jpg":
			w.Header().Set("Content-Length", "1000")
			w.Write([]byte("short"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ms.Close)
	return ms
}

func newDownloader() *Downloader {
	return New(5*time.Second, "tumblrlikes-test", logger.NewNopLogger())
}

func TestDownloadStoresUnderRemoteFilename(t *testing.T) {
	server := newMediaServer(t)
	folder := filepath.Join(t.TempDir(), "pics")
	d := newDownloader()

	file, err := d.Download(context.Background(), server.URL+"/media/tumblr_abc_1280.png", folder)
	require.NoError(t, err)
	require.NotNil(t, file)

	assert.Equal(t, filepath.Join(folder, "tumblr_abc_1280.png"), file.Path)
	assert.Equal(t, "tumblr_abc_1280.png", file.Name)
	assert.Equal(t, "image/png", file.MIME)
	assert.False(t, file.Reused)

	content, err := os.ReadFile(file.Path)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, content)
}

func TestDownloadIsIdempotent(t *testing.T) {
	server := newMediaServer(t)
	folder := t.TempDir()
	d := newDownloader()
	url := server.URL + "/media/tumblr_abc_1280.png"

	first, err := d.Download(context.Background(), url, folder)
	require.NoError(t, err)
	second, err := d.Download(context.Background(), url, folder)
	require.NoError(t, err)

	assert.Equal(t, int32(1), server.hits.Load())
	assert.Equal(t, first.Path, second.Path)
	assert.True(t, second.Reused)
	assert.Equal(t, Stats{Downloaded: 1, Reused: 1}, d.Stats())
}

func TestDownloadMatchesRenamedFile(t *testing.T) {
	server := newMediaServer(t)
	folder := t.TempDir()
	renamed := filepath.Join(folder, "7 - tumblr_abc_1280.png")
	require.NoError(t, os.WriteFile(renamed, pngHeader, 0644))

	file, err := newDownloader().Download(context.Background(), server.URL+"/media/tumblr_abc_1280.png", folder)
	require.NoError(t, err)

	assert.Equal(t, renamed, file.Path)
	assert.Equal(t, "image/png", file.MIME)
	assert.Equal(t, int32(0), server.hits.Load())
}

func TestDownloadMissingObject(t *testing.T) {
	server := newMediaServer(t)
	folder := t.TempDir()
	d := newDownloader()

	file, err := d.Download(context.Background(), server.URL+"/media/gone.jpg", folder)
	require.NoError(t, err)
	assert.Nil(t, file)
	assert.Equal(t, 1, d.Stats().Skipped)

	entries, _ := os.ReadDir(folder)
	assert.Empty(t, entries)
}

func TestDownloadFallsBackToContentType(t *testing.T) {
	server := newMediaServer(t)

	file, err := newDownloader().Download(context.Background(), server.URL+"/media/clip.mp4", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "video/mp4", file.MIME)
}

func TestDownloadTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL + "/media/a.jpg"
	server.Close()

	_, err := newDownloader().Download(context.Background(), url, t.TempDir())
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindTransfer))
}

func TestDownloadTruncatedBody(t *testing.T) {
	server := newMediaServer(t)
	folder := t.TempDir()

	_, err := newDownloader().Download(context.Background(), server.URL+"/media/truncated.jpg", folder)
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindTransfer))

	entries, _ := os.ReadDir(folder)
	assert.Empty(t, entries, "no partial file may survive")
}

func TestDownloadSlowBodyOutlivesTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
		flusher := w.(http.Flusher)
		for i := 0; i < 10; i++ {
			w.Write([]byte("chunk"))
			flusher.Flush()
			time.Sleep(50 * time.Millisecond)
		}
	}))
	defer srv.Close()

	d := New(200*time.Millisecond, "tumblrlikes-test", logger.NewNopLogger())
	file, err := d.Download(context.Background(), srv.URL+"/media/big.mp4", t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, file)

	data, err := os.ReadFile(file.Path)
	require.NoError(t, err)
	assert.Len(t, data, 50)
}

func TestDownloadHeaderTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	d := New(100*time.Millisecond, "tumblrlikes-test", logger.NewNopLogger())
	file, err := d.Download(context.Background(), srv.URL+"/media/stalled.png", t.TempDir())
	assert.Nil(t, file)
	assert.True(t, apperrors.IsKind(err, apperrors.KindTransfer), "got %v", err)
}

func TestDownloadURLWithoutFilename(t *testing.T) {
	d := newDownloader()
	file, err := d.Download(context.Background(), "https://example.com/media/", t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, file)
}

func TestFetchKeysOnExactPath(t *testing.T) {
	server := newMediaServer(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1 - tumblr_abc_1280.png"), nil, 0644))

	d := newDownloader()
	path := filepath.Join(dir, "tumblr_abc_1280.png")
	url := server.URL + "/media/tumblr_abc_1280.png"

	first, err := d.Fetch(context.Background(), url, path)
	require.NoError(t, err)
	assert.Equal(t, path, first.Path)
	assert.False(t, first.Reused)

	second, err := d.Fetch(context.Background(), url, path)
	require.NoError(t, err)
	assert.True(t, second.Reused)
	assert.Equal(t, int32(1), server.hits.Load())
}
