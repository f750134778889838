package scraper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"tumblrlikes/internal/downloader"
	"tumblrlikes/pkg/archive"
	"tumblrlikes/pkg/dump"
	apperrors "tumblrlikes/pkg/errors"
	"tumblrlikes/pkg/export"
	"tumblrlikes/pkg/logger"
	"tumblrlikes/pkg/tumblr"
)

// Consumer receives every post of a run, in arrival order
type Consumer interface {
	// Consume handles one post and returns how many files it produced
	Consume(ctx context.Context, post tumblr.Post) (int, error)
	// FinishState is the run state Finish works in
	FinishState() State
	// Finish runs once after the source is exhausted and returns how many
	// files it renamed
	Finish(ctx context.Context) (int, error)
	Name() string
}

type downloadConsumer struct {
	dl            MediaDownloader
	outputDir     string
	blog          string
	writeManifest bool
	assembler     *archive.Assembler
	reporter      Reporter
	logger        logger.Logger
}

func newDownloadConsumer(dl MediaDownloader, outputDir, blog string, writeManifest bool, reporter Reporter, log logger.Logger) (*downloadConsumer, error) {
	for _, sub := range []string{tumblr.PicsFolder, tumblr.VideosFolder} {
		if err := os.MkdirAll(filepath.Join(outputDir, sub), 0755); err != nil {
			return nil, apperrors.Filesystem("create output directory", err)
		}
	}
	return &downloadConsumer{
		dl:            dl,
		outputDir:     outputDir,
		blog:          blog,
		writeManifest: writeManifest,
		assembler:     archive.NewAssembler(),
		reporter:      reporter,
		logger:        log,
	}, nil
}

func (c *downloadConsumer) Name() string       { return "download" }
func (c *downloadConsumer) FinishState() State { return StateRenaming }

func (c *downloadConsumer) Consume(ctx context.Context, post tumblr.Post) (int, error) {
	urls := tumblr.MediaURLs(post)
	folder := filepath.Join(c.outputDir, tumblr.MediaFolder(post.Kind()))

	files := make([]*downloader.File, 0, len(urls))
	produced := 0
	for _, url := range urls {
		file, err := c.dl.Download(ctx, url, folder)
		if err != nil {
			return produced, fmt.Errorf("post %d: %w", post.ID, err)
		}
		if file == nil {
			c.reporter.Fail(url)
		} else {
			produced++
		}
		files = append(files, file)
	}

	c.assembler.Add(post, files)
	return produced, nil
}

func (c *downloadConsumer) Finish(ctx context.Context) (int, error) {
	c.reporter.Phase(fmt.Sprintf("Renaming %d files in like order", c.assembler.FileCount()))

	groups := c.assembler.Groups()
	renamed, err := archive.Rename(groups, c.logger)
	if err != nil {
		return renamed, err
	}

	if !c.writeManifest {
		return renamed, nil
	}
	manifest := archive.BuildManifest(c.blog, c.outputDir, groups)
	return renamed, manifest.Save(filepath.Join(c.outputDir, archive.ManifestFileName))
}

type dumpConsumer struct {
	path  string
	posts []tumblr.Post
}

func (c *dumpConsumer) Name() string       { return "dump" }
func (c *dumpConsumer) FinishState() State { return StateDumping }

func (c *dumpConsumer) Consume(ctx context.Context, post tumblr.Post) (int, error) {
	c.posts = append(c.posts, post)
	return 0, nil
}

func (c *dumpConsumer) Finish(ctx context.Context) (int, error) {
	return 0, dump.WriteFile(c.path, c.posts)
}

type exportConsumer struct {
	exporter *export.Exporter
	failed   int
	reporter Reporter
}

func (c *exportConsumer) Name() string       { return "export" }
func (c *exportConsumer) FinishState() State { return StateExporting }

func (c *exportConsumer) Consume(ctx context.Context, post tumblr.Post) (int, error) {
	if err := c.exporter.Add(ctx, post); err != nil {
		return 0, fmt.Errorf("post %d: %w", post.ID, err)
	}

	cards := c.exporter.Cards()
	files := countMedia(cards[len(cards)-1])
	if failed := c.exporter.Failed(); failed > c.failed {
		for ; c.failed < failed; c.failed++ {
			c.reporter.Fail(post.PostURL)
		}
	}
	return files, nil
}

func (c *exportConsumer) Finish(ctx context.Context) (int, error) {
	return 0, c.exporter.Write()
}

func countMedia(card export.Card) int {
	n := 0
	for _, m := range card.Media {
		if !m.Failed {
			n++
		}
	}
	for q := card.Trail; q != nil; q = q.Inner {
		for _, m := range q.Media {
			if !m.Failed {
				n++
			}
		}
	}
	return n
}
