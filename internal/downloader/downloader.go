// Package downloader fetches media into local folders, skipping anything
// already archived.
package downloader

import (
	"context"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"github.com/h2non/filetype"
	apperrors "tumblrlikes/pkg/errors"
	"tumblrlikes/pkg/logger"
	"tumblrlikes/pkg/storage"
	"tumblrlikes/pkg/tumblr"
)

// File is one media file on disk
type File struct {
	Path   string
	Name   string
	MIME   string
	Reused bool
}

// Stats counts download outcomes
type Stats struct {
	Downloaded int
	Reused     int
	Skipped    int
}

// Downloader performs media transfers one at a time. It is not safe for
// concurrent use against the same folder.
type Downloader struct {
	httpClient *http.Client
	userAgent  string
	folders    map[string]*storage.Folder
	stats      Stats
	logger     logger.Logger
}

// New creates a Downloader. timeout bounds connecting and waiting for
// response headers; a body that keeps arriving is read to the end.
func New(timeout time.Duration, userAgent string, log logger.Logger) *Downloader {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Downloader{
		httpClient: &http.Client{Transport: newTransport(timeout)},
		userAgent:  userAgent,
		folders:    make(map[string]*storage.Folder),
		logger:     log,
	}
}

func newTransport(timeout time.Duration) *http.Transport {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if timeout <= 0 {
		return transport
	}
	transport.DialContext = (&net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	transport.TLSHandshakeTimeout = timeout
	transport.ResponseHeaderTimeout = timeout
	return transport
}

// Download stores url in folder under its remote filename. If any entry of
// folder already contains that filename the existing path is returned
// without a request. A non-success status returns nil with no error.
func (d *Downloader) Download(ctx context.Context, url, folder string) (*File, error) {
	name := tumblr.RemoteFilename(url)
	if name == "" {
		d.logger.WithField("url", url).Warn("media URL has no filename, skipping")
		d.stats.Skipped++
		return nil, nil
	}

	dest, err := d.folder(folder)
	if err != nil {
		return nil, err
	}

	existing, found, err := dest.FindContaining(name)
	if err != nil {
		return nil, err
	}
	if found {
		return d.reuse(url, existing, name), nil
	}

	return d.transfer(ctx, url, dest, name)
}

// Fetch stores url at exactly path unless path already exists
func (d *Downloader) Fetch(ctx context.Context, url, path string) (*File, error) {
	dest, err := d.folder(filepath.Dir(path))
	if err != nil {
		return nil, err
	}

	name := filepath.Base(path)
	if dest.Exists(name) {
		return d.reuse(url, path, name), nil
	}

	return d.transfer(ctx, url, dest, name)
}

// Stats returns the outcome counters so far
func (d *Downloader) Stats() Stats {
	return d.stats
}

func (d *Downloader) folder(dir string) (*storage.Folder, error) {
	if f, ok := d.folders[dir]; ok {
		return f, nil
	}
	f, err := storage.NewFolder(dir)
	if err != nil {
		return nil, err
	}
	d.folders[dir] = f
	return f, nil
}

func (d *Downloader) reuse(url, path, name string) *File {
	file := &File{Path: path, Name: name, MIME: sniff(path, ""), Reused: true}
	d.stats.Reused++
	logger.LogDownload(d.logger, url, file.Path, file.MIME, true, nil)
	return file
}

func (d *Downloader) transfer(ctx context.Context, url string, dest *storage.Folder, name string) (*File, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.Transfer("build request for "+url, err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.LogDownload(d.logger, url, "", "", false, err)
		return nil, apperrors.Transfer("download "+url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		d.stats.Skipped++
		d.logger.WithFields(map[string]interface{}{
			"url":    url,
			"status": resp.StatusCode,
		}).Warn("media not available, skipping")
		return nil, nil
	}

	path, err := dest.Save(resp.Body, name)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logger.LogDownload(d.logger, url, "", "", false, err)
		return nil, err
	}

	file := &File{Path: path, Name: name, MIME: sniff(path, resp.Header.Get("Content-Type"))}
	d.stats.Downloaded++
	logger.LogDownload(d.logger, url, file.Path, file.MIME, false, nil)
	return file, nil
}

// sniff identifies a file from its leading bytes, falling back to the
// server's content type
func sniff(path, fallback string) string {
	kind, err := filetype.MatchFile(path)
	if err == nil && kind != filetype.Unknown {
		return kind.MIME.Value
	}
	return fallback
}
