package tumblr

import (
	"context"
	"iter"

	"tumblrlikes/pkg/logger"
)

// LikesFetcher fetches one page of likes
type LikesFetcher interface {
	FetchLikes(ctx context.Context, blog string, limit int, before *string) (*LikesResponse, error)
}

// Page is one decoded page of likes
type Page struct {
	Posts      []Post
	Next       *string
	LikedCount int
}

// Pager walks a blog's likes newest first by following before cursors
type Pager struct {
	fetcher  LikesFetcher
	blog     string
	pageSize int
	logger   logger.Logger
}

// NewPager creates a pager over blog's likes. pageSize is clamped to 1..MaxPageSize.
func NewPager(fetcher LikesFetcher, blog string, pageSize int, log logger.Logger) *Pager {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Pager{
		fetcher:  fetcher,
		blog:     blog,
		pageSize: pageSize,
		logger:   log.WithField("blog", blog),
	}
}

// FetchPage requests the page that starts at cursor
func (p *Pager) FetchPage(ctx context.Context, cursor *string, limit int) (Page, error) {
	resp, err := p.fetcher.FetchLikes(ctx, p.blog, limit, cursor)
	if err != nil {
		return Page{}, err
	}
	return Page{
		Posts:      resp.LikedPosts,
		Next:       resp.NextCursor(),
		LikedCount: resp.LikedCount,
	}, nil
}

// Count reads the blog's total liked count with a single-item request.
// The returned item is discarded.
func (p *Pager) Count(ctx context.Context) (int, error) {
	page, err := p.FetchPage(ctx, nil, CountPageSize)
	if err != nil {
		return 0, err
	}
	p.logger.WithField("liked_count", page.LikedCount).Debug("read liked count")
	return page.LikedCount, nil
}

// Posts yields every liked post, newest first. The sequence ends after the
// first page without a next cursor, after the first error, or when a page
// comes back empty or repeats the cursor it was requested with.
func (p *Pager) Posts(ctx context.Context) iter.Seq2[Post, error] {
	return func(yield func(Post, error) bool) {
		var cursor *string
		for pageNum := 1; ; pageNum++ {
			page, err := p.FetchPage(ctx, cursor, p.pageSize)
			if err != nil {
				yield(Post{}, err)
				return
			}

			p.logger.DebugWithFields("page fetched", map[string]interface{}{
				"page":     pageNum,
				"posts":    len(page.Posts),
				"has_next": page.Next != nil,
			})

			for _, post := range page.Posts {
				if !yield(post, nil) {
					return
				}
			}

			if page.Next == nil || len(page.Posts) == 0 {
				return
			}
			if cursor != nil && *cursor == *page.Next {
				p.logger.WithField("before", *cursor).Warn("cursor did not advance, stopping")
				return
			}
			cursor = page.Next
		}
	}
}
