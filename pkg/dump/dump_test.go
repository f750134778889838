package dump

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "tumblrlikes/pkg/errors"
	"tumblrlikes/pkg/tumblr"
)

func strPtr(s string) *string { return &s }

func samplePosts() []tumblr.Post {
	return []tumblr.Post{
		{
			BlogName: "artist", ID: 730000000000000001, PostURL: "https://artist.tumblr.com/post/1",
			Type: "photo", Timestamp: 1700000000, Date: "2023-11-14 22:13:20 GMT", Format: "html",
			ReblogKey: "k1", Tags: []string{"art", "art", "sketch"}, NoteCount: 12,
			Caption: strPtr("<p>caption & more</p>"),
			Photos: []tumblr.Photo{
				{Caption: "", OriginalSize: tumblr.PhotoSize{URL: "https://m/a.jpg", Width: 1280, Height: 960}},
				{Caption: "second", OriginalSize: tumblr.PhotoSize{URL: "https://m/b.jpg", Width: 640, Height: 480}},
			},
			Trail: []tumblr.TrailItem{
				{Blog: tumblr.TrailBlog{Name: "root", Active: true}, Post: tumblr.TrailPost{ID: "9"}, ContentRaw: "<p>root</p>"},
				{Blog: tumblr.TrailBlog{Name: "leaf", Active: false}, Post: tumblr.TrailPost{ID: "10"}, ContentRaw: ""},
			},
		},
		{
			BlogName: "clips", ID: 2, Type: "video", Tags: []string{},
			VideoURL: strPtr("https://v/clip.mp4"), Trail: []tumblr.TrailItem{},
		},
		{
			BlogName: "writer", ID: 3, Type: "text", Body: strPtr(""), LikedTimestamp: 1700000100,
		},
		{
			BlogName: "misc", ID: 4, Type: "answer",
		},
	}
}

func TestRoundTrip(t *testing.T) {
	posts := samplePosts()

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, posts))

	restored, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, posts, restored)
}

func TestRoundTripFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "likes.json")
	posts := samplePosts()

	require.NoError(t, WriteFile(path, posts))
	restored, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, posts, restored)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must not remain")
}

func TestRoundTripSparsePosts(t *testing.T) {
	posts := []tumblr.Post{
		{},
		{Type: "quote"},
		{ID: 7, Tags: []string{}, Trail: []tumblr.TrailItem{}, Body: strPtr("")},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, posts))

	restored, err := Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, posts, restored)
}

func TestEncodeEmptyIsArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, nil))
	assert.Equal(t, "[]", strings.TrimSpace(buf.String()))

	restored, err := Decode(&buf)
	require.NoError(t, err)
	assert.Empty(t, restored)
}

func TestEncodeKeepsHTMLVerbatim(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, samplePosts()[:1]))
	assert.Contains(t, buf.String(), "<p>caption & more</p>")
}

func TestDecodeFormatErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"not json", "likes!"},
		{"object instead of array", `{"blog_name": "x"}`},
		{"null", "null"},
		{"wrong field type", `[{"blog_name": "x", "id": "one", "type": "text"}]`},
		{"unknown field", `[{"blog_name": "x", "id": 1, "type": "text", "reblogged": true}]`},
		{"truncated", `[{"blog_name": "x", "id": 1,`},
		{"trailing data", `[] []`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.True(t, apperrors.IsKind(err, apperrors.KindFormat), "got %v", err)
			assert.False(t, apperrors.IsFatal(err))
		})
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindFilesystem))
}
