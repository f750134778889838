package scraper

import (
	"context"
	"iter"

	"tumblrlikes/internal/downloader"
	"tumblrlikes/pkg/tumblr"
)

// LikesSource defines the likes API operations a run needs
type LikesSource interface {
	Count(ctx context.Context) (int, error)
	Posts(ctx context.Context) iter.Seq2[tumblr.Post, error]
}

// MediaDownloader defines the media transfer operations a run needs
type MediaDownloader interface {
	Download(ctx context.Context, url, folder string) (*downloader.File, error)
	Fetch(ctx context.Context, url, path string) (*downloader.File, error)
	Stats() downloader.Stats
}

// Reporter receives progress as the run advances
type Reporter interface {
	Start(phase string, total int)
	Advance(postID uint64, files int)
	Fail(url string)
	Phase(msg string)
	Complete(summary string)
}

type nopReporter struct{}

func (nopReporter) Start(string, int)   {}
func (nopReporter) Advance(uint64, int) {}
func (nopReporter) Fail(string)         {}
func (nopReporter) Phase(string)        {}
func (nopReporter) Complete(string)     {}
