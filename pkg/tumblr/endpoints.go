package tumblr

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// BaseURL is the root of the Tumblr API
	BaseURL = "https://api.tumblr.com"

	// LikesEndpoint is the path pattern of a blog's likes
	LikesEndpoint = "/v2/blog/%s/likes"

	// CountPageSize is the page size of the request that only reads liked_count
	CountPageSize = 1

	// MaxPageSize is the largest page the likes endpoint returns
	MaxPageSize = 20
)

// LikesURL builds the likes URL for blog. A nil before requests the newest page.
func LikesURL(baseURL, blog, apiKey string, limit int, before *string) string {
	if limit <= 0 || limit > MaxPageSize {
		limit = MaxPageSize
	}

	params := url.Values{}
	params.Set("api_key", apiKey)
	params.Set("limit", strconv.Itoa(limit))
	if before != nil {
		params.Set("before", *before)
	}

	path := fmt.Sprintf(LikesEndpoint, url.PathEscape(NormalizeBlogName(blog)))
	return strings.TrimRight(baseURL, "/") + path + "?" + params.Encode()
}

// NormalizeBlogName accepts a bare name, a name with a leading @ or a
// hostname and returns the blog identifier the API expects
func NormalizeBlogName(blog string) string {
	blog = strings.TrimSpace(blog)
	blog = strings.TrimPrefix(blog, "@")
	blog = strings.TrimPrefix(blog, "https://")
	blog = strings.TrimPrefix(blog, "http://")
	return strings.TrimRight(blog, "/")
}

// RemoteFilename returns the last /-separated segment of a media URL
func RemoteFilename(mediaURL string) string {
	if i := strings.LastIndex(mediaURL, "/"); i >= 0 {
		return mediaURL[i+1:]
	}
	return mediaURL
}
