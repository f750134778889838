package storage

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	apperrors "tumblrlikes/pkg/errors"
)

// partialPrefix marks in-progress writes. Dedup scans skip entries that
// start with it.
const partialPrefix = ".part-"

// Folder handles storage operations and duplicate detection for one directory
type Folder struct {
	dir   string
	saved int
	mu    sync.Mutex
}

// NewFolder creates dir if needed and returns a Folder over it
func NewFolder(dir string) (*Folder, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apperrors.Filesystem("create folder "+dir, err)
	}
	return &Folder{dir: dir}, nil
}

// Dir returns the folder path
func (f *Folder) Dir() string {
	return f.dir
}

// FindContaining returns the path of the first regular entry whose name
// contains name
func (f *Folder) FindContaining(name string) (string, bool, error) {
	if name == "" {
		return "", false, nil
	}

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, apperrors.Filesystem("scan "+f.dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), partialPrefix) {
			continue
		}
		if strings.Contains(entry.Name(), name) {
			return filepath.Join(f.dir, entry.Name()), true, nil
		}
	}
	return "", false, nil
}

// Exists reports whether name exists in the folder exactly
func (f *Folder) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(f.dir, name))
	return err == nil
}

// Save streams r into the folder as name. The data lands in a partial file
// first and is renamed into place only after a complete copy. A failure
// reading r is a transfer error; anything on the local side is a
// filesystem error.
func (f *Folder) Save(r io.Reader, name string) (string, error) {
	target := filepath.Join(f.dir, name)

	out, err := os.CreateTemp(f.dir, partialPrefix+"*")
	if err != nil {
		return "", apperrors.Filesystem("create "+target, err)
	}
	tempFile := out.Name()

	src := &trackingReader{r: r}
	_, err = io.Copy(out, src)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		if src.err != nil {
			return "", apperrors.Transfer("read "+name, src.err)
		}
		return "", apperrors.Filesystem("write "+target, err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return "", apperrors.Filesystem("close "+target, closeErr)
	}

	if err := os.Rename(tempFile, target); err != nil {
		os.Remove(tempFile)
		return "", apperrors.Filesystem("rename into "+target, err)
	}

	f.mu.Lock()
	f.saved++
	f.mu.Unlock()

	return target, nil
}

// SavedCount returns how many files this Folder has written
func (f *Folder) SavedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saved
}

// trackingReader remembers the first read error so Save can tell a broken
// stream from a failing disk
type trackingReader struct {
	r   io.Reader
	err error
}

func (t *trackingReader) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil && err != io.EOF && t.err == nil {
		t.err = err
	}
	return n, err
}
