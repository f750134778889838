package tumblr

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikesURL(t *testing.T) {
	before := "1700000000"

	tests := []struct {
		name       string
		limit      int
		before     *string
		wantLimit  string
		wantBefore string
	}{
		{"count request", CountPageSize, nil, "1", ""},
		{"full page", MaxPageSize, nil, "20", ""},
		{"with cursor", 20, &before, "20", "1700000000"},
		{"clamped", 500, nil, "20", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := LikesURL("https://api.example.com/", "staff", "k3y", tt.limit, tt.before)
			u, err := url.Parse(raw)
			require.NoError(t, err)

			assert.Equal(t, "/v2/blog/staff/likes", u.Path)
			assert.Equal(t, "api.example.com", u.Host)
			assert.Equal(t, "k3y", u.Query().Get("api_key"))
			assert.Equal(t, tt.wantLimit, u.Query().Get("limit"))
			assert.Equal(t, tt.wantBefore, u.Query().Get("before"))
			assert.Equal(t, tt.before != nil, u.Query().Has("before"))
		})
	}
}

func TestNormalizeBlogName(t *testing.T) {
	tests := map[string]string{
		"staff":                      "staff",
		"@staff":                     "staff",
		" staff ":                    "staff",
		"https://staff.tumblr.com/":  "staff.tumblr.com",
		"http://example.com":         "example.com",
	}
	for in, want := range tests {
		assert.Equal(t, want, NormalizeBlogName(in), in)
	}
}

func TestRemoteFilename(t *testing.T) {
	assert.Equal(t, "tumblr_abc_1280.jpg", RemoteFilename("https://64.media.tumblr.com/x/tumblr_abc_1280.jpg"))
	assert.Equal(t, "plain", RemoteFilename("plain"))
	assert.Equal(t, "", RemoteFilename("https://host/dir/"))
}
