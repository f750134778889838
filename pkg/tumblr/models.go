package tumblr

import "fmt"

// Kind is the closed set of post kinds the archiver distinguishes
type Kind int

const (
	KindOther Kind = iota
	KindPhoto
	KindVideo
	KindText
)

// ParseKind maps the API's type string onto a Kind. Unrecognised types
// (quote, link, chat, audio, answer, ...) become KindOther.
func ParseKind(s string) Kind {
	switch s {
	case "photo":
		return KindPhoto
	case "video":
		return KindVideo
	case "text":
		return KindText
	default:
		return KindOther
	}
}

func (k Kind) String() string {
	switch k {
	case KindPhoto:
		return "photo"
	case KindVideo:
		return "video"
	case KindText:
		return "text"
	default:
		return "other"
	}
}

// Post is one liked post. Optional fields are pointers or nil slices so a
// dump reproduces exactly what was received.
type Post struct {
	BlogName       string      `json:"blog_name"`
	ID             uint64      `json:"id"`
	PostURL        string      `json:"post_url"`
	Type           string      `json:"type"`
	Timestamp      int64       `json:"timestamp"`
	Date           string      `json:"date"`
	Format         string      `json:"format"`
	ReblogKey      string      `json:"reblog_key"`
	Tags           []string    `json:"tags"`
	NoteCount      int         `json:"note_count"`
	LikedTimestamp int64       `json:"liked_timestamp"`
	Body           *string     `json:"body,omitempty"`
	Caption        *string     `json:"caption,omitempty"`
	Trail          []TrailItem `json:"trail"`
	Photos         []Photo     `json:"photos"`
	VideoURL       *string     `json:"video_url,omitempty"`
}

// Kind classifies the post by its type string
func (p *Post) Kind() Kind {
	return ParseKind(p.Type)
}

// Photo is one image of a photo post
type Photo struct {
	Caption      string    `json:"caption"`
	OriginalSize PhotoSize `json:"original_size"`
}

// PhotoSize is a rendition of a photo
type PhotoSize struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// TrailItem is one hop of a reblog chain. The API returns the trail root first.
type TrailItem struct {
	Blog       TrailBlog `json:"blog"`
	Post       TrailPost `json:"post"`
	ContentRaw string    `json:"content_raw"`
}

// TrailBlog names the contributing blog
type TrailBlog struct {
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// TrailPost identifies the contributor's own post
type TrailPost struct {
	ID string `json:"id"`
}

// PostURL returns the permalink of the contributor's post
func (t TrailItem) PostURL() string {
	return fmt.Sprintf("https://%s.tumblr.com/post/%s/", t.Blog.Name, t.Post.ID)
}

// LikesEnvelope is the top-level likes API document
type LikesEnvelope struct {
	Meta     Meta          `json:"meta"`
	Response LikesResponse `json:"response"`
}

// Meta carries the API status echo
type Meta struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
}

// LikesResponse is one page of liked posts
type LikesResponse struct {
	LikedCount int    `json:"liked_count"`
	LikedPosts []Post `json:"liked_posts"`
	Links      *Links `json:"_links,omitempty"`
}

// Links holds the pagination links of a page
type Links struct {
	Next *NextLink `json:"next,omitempty"`
}

// NextLink points at the following page
type NextLink struct {
	Href        string       `json:"href"`
	QueryParams *QueryParams `json:"query_params,omitempty"`
}

// QueryParams are the parameters of the next-page request
type QueryParams struct {
	Limit  string `json:"limit"`
	Before string `json:"before"`
}

// NextCursor extracts the before cursor. A missing links object, next link,
// query params or empty before value all mean there is no next page.
func (r *LikesResponse) NextCursor() *string {
	if r.Links == nil || r.Links.Next == nil || r.Links.Next.QueryParams == nil {
		return nil
	}
	before := r.Links.Next.QueryParams.Before
	if before == "" {
		return nil
	}
	return &before
}
