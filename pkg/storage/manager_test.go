package storage

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "tumblrlikes/pkg/errors"
)

func TestNewFolderCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "downloads", "pics")

	folder, err := NewFolder(dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, dir, folder.Dir())
}

func TestSave(t *testing.T) {
	folder, err := NewFolder(t.TempDir())
	require.NoError(t, err)

	path, err := folder.Save(strings.NewReader("jpeg bytes"), "tumblr_abc_1280.jpg")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(folder.Dir(), "tumblr_abc_1280.jpg"), path)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(content))
	assert.Equal(t, 1, folder.SavedCount())
	assert.True(t, folder.Exists("tumblr_abc_1280.jpg"))
}

type brokenReader struct{ sent bool }

func (b *brokenReader) Read(p []byte) (int, error) {
	if !b.sent {
		b.sent = true
		return copy(p, "partial"), nil
	}
	return 0, io.ErrUnexpectedEOF
}

func TestSaveBrokenStreamLeavesNothing(t *testing.T) {
	folder, err := NewFolder(t.TempDir())
	require.NoError(t, err)

	_, err = folder.Save(&brokenReader{}, "clip.mp4")
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindTransfer))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	entries, err := os.ReadDir(folder.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, 0, folder.SavedCount())
}

func TestFindContaining(t *testing.T) {
	dir := t.TempDir()
	folder, err := NewFolder(dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "3 - tumblr_abc_1280.jpg"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".part-1280"), nil, 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "tumblr_dir.jpg"), 0755))

	tests := []struct {
		name  string
		found bool
		path  string
	}{
		{"tumblr_abc_1280.jpg", true, filepath.Join(dir, "3 - tumblr_abc_1280.jpg")},
		{"abc_1280", true, filepath.Join(dir, "3 - tumblr_abc_1280.jpg")},
		{"tumblr_xyz_1280.jpg", false, ""},
		{"part-1280", false, ""},
		{"tumblr_dir.jpg", false, ""},
		{"1280", true, filepath.Join(dir, "3 - tumblr_abc_1280.jpg")},
		{"", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, found, err := folder.FindContaining(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.path, path)
		})
	}
}

func TestFindContainingMissingFolder(t *testing.T) {
	folder := &Folder{dir: filepath.Join(t.TempDir(), "gone")}

	_, found, err := folder.FindContaining("a.jpg")
	require.NoError(t, err)
	assert.False(t, found)
}
