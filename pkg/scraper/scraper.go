package scraper

import (
	"context"
	stderrors "errors"
	"fmt"
	"iter"
	"strings"

	"tumblrlikes/internal/downloader"
	"tumblrlikes/pkg/config"
	"tumblrlikes/pkg/dump"
	apperrors "tumblrlikes/pkg/errors"
	"tumblrlikes/pkg/export"
	"tumblrlikes/pkg/logger"
	"tumblrlikes/pkg/ratelimit"
	"tumblrlikes/pkg/tumblr"
)

// ErrLikesUnavailable means the API refused the initial count request,
// usually because of a bad API key or blog name
var ErrLikesUnavailable = stderrors.New("liked posts are not available for this blog")

// State is a step of a run
type State int

const (
	StateStart State = iota
	StateFetching
	StateRestoring
	StateDownloading
	StateDumping
	StateExporting
	StateRenaming
	StateDone
)

func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateFetching:
		return "fetching"
	case StateRestoring:
		return "restoring"
	case StateDownloading:
		return "downloading"
	case StateDumping:
		return "dumping"
	case StateExporting:
		return "exporting"
	case StateRenaming:
		return "renaming"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result summarises a finished run
type Result struct {
	Mode    string
	Posts   int
	Total   int
	Files   int
	Renamed int
	Stats   downloader.Stats
	Output  string
}

// Scraper runs one archive pass
type Scraper struct {
	config   *config.Config
	source   LikesSource
	dl       MediaDownloader
	reporter Reporter
	state    State
	logger   logger.Logger
}

// New wires a Scraper against the live likes API
func New(cfg *config.Config, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}

	client := tumblr.NewClient(cfg.Tumblr.APIKey, cfg.Download.Timeout, log)
	client.SetBaseURL(cfg.Tumblr.BaseURL)
	if cfg.Download.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.Download.UserAgent)
	}
	if cfg.RateLimit.RequestsPerMinute > 0 {
		client.SetLimiter(ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute))
	}

	pager := tumblr.NewPager(client, cfg.Tumblr.BlogName, cfg.Tumblr.PageSize, log)
	dl := downloader.New(cfg.Download.Timeout, cfg.Download.UserAgent, log)

	return NewWithDeps(cfg, pager, dl, log)
}

// NewWithDeps builds a Scraper from explicit collaborators
func NewWithDeps(cfg *config.Config, source LikesSource, dl MediaDownloader, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Scraper{
		config:   cfg,
		source:   source,
		dl:       dl,
		reporter: nopReporter{},
		state:    StateStart,
		logger:   log.WithField("blog", cfg.Tumblr.BlogName),
	}
}

// SetReporter sets where progress is reported
func (s *Scraper) SetReporter(r Reporter) {
	if r == nil {
		r = nopReporter{}
	}
	s.reporter = r
}

// State returns the step the run is in
func (s *Scraper) State() State {
	return s.state
}

func (s *Scraper) enter(state State) {
	s.logger.WithFields(map[string]interface{}{
		"from": s.state.String(),
		"to":   state.String(),
	}).Debug("run state changed")
	s.state = state
}

// Run drives the selected source into the selected consumer. A rejected
// count request returns ErrLikesUnavailable; an unreadable snapshot returns
// a format error.
func (s *Scraper) Run(ctx context.Context) (*Result, error) {
	posts, total, err := s.openSource(ctx)
	if err != nil {
		return nil, err
	}

	consumer, state, output, err := s.selectConsumer()
	if err != nil {
		return nil, err
	}
	s.enter(state)

	s.logger.InfoWithFields("Starting run", map[string]interface{}{
		"mode":  consumer.Name(),
		"total": total,
	})
	s.reporter.Start(phaseLabel(state), total)

	result := &Result{Mode: consumer.Name(), Total: total, Output: output}
	for post, err := range posts {
		if err != nil {
			s.logger.WithError(err).Error("Failed to fetch liked posts")
			return result, err
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		files, err := consumer.Consume(ctx, post)
		if err != nil {
			s.logger.WithError(err).WithField("post_id", post.ID).Error("Failed to process post")
			return result, err
		}
		result.Posts++
		result.Files += files
		s.reporter.Advance(post.ID, files)
		if result.Posts%tumblr.MaxPageSize == 0 {
			logger.LogLikesProgress(s.logger, s.config.Tumblr.BlogName, result.Posts, total)
		}
	}

	if next := consumer.FinishState(); next != s.state {
		s.enter(next)
	}
	renamed, err := consumer.Finish(ctx)
	result.Renamed = renamed
	if err != nil {
		return result, err
	}
	result.Stats = s.dl.Stats()

	s.enter(StateDone)
	s.logger.InfoWithFields("Run completed", map[string]interface{}{
		"mode":       result.Mode,
		"posts":      result.Posts,
		"files":      result.Files,
		"renamed":    result.Renamed,
		"downloaded": result.Stats.Downloaded,
		"reused":     result.Stats.Reused,
		"skipped":    result.Stats.Skipped,
	})
	s.reporter.Complete(summary(result))
	return result, nil
}

func (s *Scraper) openSource(ctx context.Context) (iter.Seq2[tumblr.Post, error], int, error) {
	if path := s.config.Mode.RestorePath; path != "" {
		s.enter(StateRestoring)
		posts, err := dump.ReadFile(path)
		if err != nil {
			s.logger.WithError(err).WithField("path", path).Error("Failed to restore snapshot")
			return nil, 0, err
		}
		s.logger.WithFields(map[string]interface{}{
			"path":  path,
			"posts": len(posts),
		}).Info("Snapshot restored")
		return restored(posts), len(posts), nil
	}

	s.enter(StateFetching)
	total, err := s.source.Count(ctx)
	if err != nil {
		if apperrors.IsKind(err, apperrors.KindRemote) {
			s.logger.WithError(err).Warn("Likes API rejected the count request")
			return nil, 0, fmt.Errorf("%w: %w", ErrLikesUnavailable, err)
		}
		return nil, 0, err
	}
	return s.source.Posts(ctx), total, nil
}

func (s *Scraper) selectConsumer() (Consumer, State, string, error) {
	cfg := s.config
	switch {
	case cfg.Mode.DumpPath != "":
		return &dumpConsumer{path: cfg.Mode.DumpPath}, StateDumping, cfg.Mode.DumpPath, nil

	case cfg.Mode.ExportPath != "":
		exp := export.New(s.dl, cfg.Output.ExportDirectory, cfg.Mode.ExportPath, s.logger)
		if blog := cfg.Tumblr.BlogName; blog != "" {
			exp.SetTitle("Likes of " + blog)
		}
		return &exportConsumer{exporter: exp, reporter: s.reporter}, StateExporting, cfg.Mode.ExportPath, nil

	default:
		dc, err := newDownloadConsumer(s.dl, cfg.Output.BaseDirectory, cfg.Tumblr.BlogName, cfg.Output.WriteManifest, s.reporter, s.logger)
		if err != nil {
			return nil, StateStart, "", err
		}
		return dc, StateDownloading, cfg.Output.BaseDirectory, nil
	}
}

func restored(posts []tumblr.Post) iter.Seq2[tumblr.Post, error] {
	return func(yield func(tumblr.Post, error) bool) {
		for _, post := range posts {
			if !yield(post, nil) {
				return
			}
		}
	}
}

func phaseLabel(s State) string {
	label := s.String()
	return strings.ToUpper(label[:1]) + label[1:]
}

func summary(r *Result) string {
	switch r.Mode {
	case "dump":
		return fmt.Sprintf("Dumped %d posts to %s", r.Posts, r.Output)
	case "export":
		return fmt.Sprintf("Exported %d posts to %s", r.Posts, r.Output)
	default:
		return fmt.Sprintf("Archived %d posts into %s (%d new, %d already present)", r.Posts, r.Output, r.Stats.Downloaded, r.Stats.Reused)
	}
}
