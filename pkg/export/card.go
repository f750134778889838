package export

import (
	"html/template"

	"tumblrlikes/pkg/tumblr"
)

// Placeholder replaces any media that could not be fetched
const Placeholder = "Could not fetch object"

// Card is the rendered form of one post
type Card struct {
	ID        uint64
	Kind      string
	PostURL   string
	BlogName  string
	Tags      []string
	Date      string
	NoteCount int

	// Body is the sanitised body of a text post
	Body template.HTML
	// Trail is the outermost quote of a reblog chain, nil without one
	Trail *Quote
	// Media is shown directly when the post has no trail
	Media []Media
}

// Quote is one contributor's wrapper in a reblog chain. The innermost quote
// (Inner == nil) carries the post's media ahead of its own content.
type Quote struct {
	Blog    string
	URL     string
	Content template.HTML
	Inner   *Quote
	Media   []Media
}

// Media is one image or video of a post
type Media struct {
	Src    string
	Video  bool
	Failed bool
}

// Depth returns how many quotes are nested from q inwards
func (q *Quote) Depth() int {
	n := 0
	for ; q != nil; q = q.Inner {
		n++
	}
	return n
}

// foldTrail nests a root-first trail so the most recent contributor is the
// outermost quote and the root is innermost, holding media. Content is
// passed through sanitize.
func foldTrail(trail []tumblr.TrailItem, media []Media, sanitize func(string) template.HTML) *Quote {
	var q *Quote
	for i, item := range trail {
		next := &Quote{
			Blog:    item.Blog.Name,
			URL:     item.PostURL(),
			Content: sanitize(item.ContentRaw),
			Inner:   q,
		}
		if i == 0 {
			next.Media = media
		}
		q = next
	}
	return q
}

func newCard(post tumblr.Post) Card {
	return Card{
		ID:        post.ID,
		Kind:      post.Kind().String(),
		PostURL:   post.PostURL,
		BlogName:  post.BlogName,
		Tags:      post.Tags,
		Date:      post.Date,
		NoteCount: post.NoteCount,
	}
}
