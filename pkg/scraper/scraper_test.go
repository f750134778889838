package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tumblrlikes/pkg/archive"
	"tumblrlikes/pkg/config"
	"tumblrlikes/pkg/dump"
	apperrors "tumblrlikes/pkg/errors"
	"tumblrlikes/pkg/logger"
	"tumblrlikes/pkg/tumblr"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

// mockTumblrServer serves total likes with ids total..1, newest first.
// Every seventh post is text, post 3 is a video and the rest are photos.
type mockTumblrServer struct {
	server     *httptest.Server
	total      int
	reject     bool
	missing    map[uint64]bool
	likesCalls atomic.Int32
	mediaCalls atomic.Int32
	mu         sync.Mutex
}

func newMockTumblrServer(t *testing.T, total int) *mockTumblrServer {
	t.Helper()
	m := &mockTumblrServer{total: total, missing: make(map[uint64]bool)}

	mux := http.NewServeMux()
	mux.HandleFunc("/v2/blog/staff/likes", m.serveLikes)
	mux.HandleFunc("/media/", func(w http.ResponseWriter, r *http.Request) {
		m.mediaCalls.Add(1)
		if strings.Contains(r.URL.Path, "missing") {
			http.NotFound(w, r)
			return
		}
		w.Write(pngHeader)
	})

	m.server = httptest.NewServer(mux)
	t.Cleanup(m.server.Close)
	return m
}

func (m *mockTumblrServer) setTotal(total int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total = total
}

func (m *mockTumblrServer) post(id uint64) tumblr.Post {
	p := tumblr.Post{
		BlogName:  fmt.Sprintf("blog%d", id),
		ID:        id,
		PostURL:   fmt.Sprintf("https://blog%d.tumblr.com/post/%d", id, id),
		Date:      "2024-01-01 00:00:00 GMT",
		Tags:      []string{"art"},
		NoteCount: int(id),
	}

	name := fmt.Sprintf("p%d.png", id)
	m.mu.Lock()
	if m.missing[id] {
		name = fmt.Sprintf("missing%d.png", id)
	}
	m.mu.Unlock()

	switch {
	case id%7 == 0:
		p.Type = "text"
		body := "<p>just words</p>"
		p.Body = &body
	case id == 3:
		p.Type = "video"
		video := m.server.URL + "/media/v3.mp4"
		p.VideoURL = &video
	default:
		p.Type = "photo"
		p.Photos = []tumblr.Photo{{OriginalSize: tumblr.PhotoSize{URL: m.server.URL + "/media/" + name, Width: 10, Height: 10}}}
	}
	return p
}

func (m *mockTumblrServer) serveLikes(w http.ResponseWriter, r *http.Request) {
	m.likesCalls.Add(1)
	w.Header().Set("Content-Type", "application/json")

	m.mu.Lock()
	total, reject := m.total, m.reject
	m.mu.Unlock()

	if reject {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(tumblr.LikesEnvelope{Meta: tumblr.Meta{Status: 401, Msg: "Unauthorized"}})
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	start := total
	if before := r.URL.Query().Get("before"); before != "" {
		start, _ = strconv.Atoi(before)
		start--
	}

	posts := []tumblr.Post{}
	for id := start; id >= 1 && len(posts) < limit; id-- {
		posts = append(posts, m.post(uint64(id)))
	}

	resp := tumblr.LikesResponse{LikedCount: total, LikedPosts: posts}
	if len(posts) > 0 && posts[len(posts)-1].ID > 1 {
		resp.Links = &tumblr.Links{Next: &tumblr.NextLink{QueryParams: &tumblr.QueryParams{
			Limit:  strconv.Itoa(limit),
			Before: fmt.Sprint(posts[len(posts)-1].ID),
		}}}
	}
	json.NewEncoder(w).Encode(tumblr.LikesEnvelope{Meta: tumblr.Meta{Status: 200, Msg: "OK"}, Response: resp})
}

type recordingReporter struct {
	started  int
	advanced []uint64
	failed   []string
	summary  string
}

func (r *recordingReporter) Start(phase string, total int)    { r.started = total }
func (r *recordingReporter) Advance(postID uint64, files int) { r.advanced = append(r.advanced, postID) }
func (r *recordingReporter) Fail(url string)                  { r.failed = append(r.failed, url) }
func (r *recordingReporter) Phase(msg string)                 {}
func (r *recordingReporter) Complete(summary string)          { r.summary = summary }

func testConfig(t *testing.T, m *mockTumblrServer) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Tumblr.APIKey = "test-key"
	cfg.Tumblr.BlogName = "staff"
	cfg.Tumblr.BaseURL = m.server.URL
	cfg.Output.BaseDirectory = filepath.Join(dir, "likes")
	cfg.Output.ExportDirectory = filepath.Join(dir, "export")
	cfg.RateLimit.RequestsPerMinute = 6000
	return cfg
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestRunDownloadTwentyOneLikes(t *testing.T) {
	m := newMockTumblrServer(t, 21)
	cfg := testConfig(t, m)

	s := New(cfg, logger.NewNopLogger())
	rep := &recordingReporter{}
	s.SetReporter(rep)

	result, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateDone, s.State())
	assert.Equal(t, "download", result.Mode)
	assert.Equal(t, 21, result.Posts)
	assert.Equal(t, 21, result.Total)
	assert.Equal(t, 18, result.Files)
	assert.Equal(t, 18, result.Stats.Downloaded)
	assert.Equal(t, 18, result.Renamed)
	assert.Equal(t, int32(3), m.likesCalls.Load())

	assert.Equal(t, 21, rep.started)
	require.Len(t, rep.advanced, 21)
	assert.Equal(t, uint64(21), rep.advanced[0])
	assert.Contains(t, rep.summary, "Archived 21 posts")

	pics := listDir(t, filepath.Join(cfg.Output.BaseDirectory, tumblr.PicsFolder))
	assert.Len(t, pics, 17)
	assert.Contains(t, pics, "1 - p1.png")
	assert.Contains(t, pics, "20 - p20.png")
	assert.NotContains(t, pics, "7 - p7.png")

	videos := listDir(t, filepath.Join(cfg.Output.BaseDirectory, tumblr.VideosFolder))
	assert.Equal(t, []string{"3 - v3.mp4"}, videos)

	manifest, err := archive.LoadManifest(filepath.Join(cfg.Output.BaseDirectory, archive.ManifestFileName))
	require.NoError(t, err)
	assert.Equal(t, 21, manifest.Posts)
	assert.Equal(t, 18, manifest.Files)
	assert.Equal(t, 1, manifest.Entries[0].Index)
	assert.Equal(t, uint64(1), manifest.Entries[0].PostID)
}

func TestRunDownloadIsIdempotent(t *testing.T) {
	m := newMockTumblrServer(t, 9)
	cfg := testConfig(t, m)

	_, err := New(cfg, logger.NewNopLogger()).Run(context.Background())
	require.NoError(t, err)
	first := listDir(t, filepath.Join(cfg.Output.BaseDirectory, tumblr.PicsFolder))
	mediaCalls := m.mediaCalls.Load()

	result, err := New(cfg, logger.NewNopLogger()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, mediaCalls, m.mediaCalls.Load())
	assert.Equal(t, 0, result.Stats.Downloaded)
	assert.Equal(t, result.Files, result.Stats.Reused)
	assert.Equal(t, 0, result.Renamed)
	assert.Equal(t, first, listDir(t, filepath.Join(cfg.Output.BaseDirectory, tumblr.PicsFolder)))
}

func TestRunNewLikesShiftIndices(t *testing.T) {
	m := newMockTumblrServer(t, 2)
	cfg := testConfig(t, m)

	_, err := New(cfg, logger.NewNopLogger()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1 - p1.png", "2 - p2.png"}, listDir(t, filepath.Join(cfg.Output.BaseDirectory, tumblr.PicsFolder)))

	// a new like arrives at the front; older ones keep their index
	m.setTotal(4)
	_, err = New(cfg, logger.NewNopLogger()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1 - p1.png", "2 - p2.png", "4 - p4.png"}, listDir(t, filepath.Join(cfg.Output.BaseDirectory, tumblr.PicsFolder)))
}

func TestRunMissingMediaStillConsumesIndex(t *testing.T) {
	m := newMockTumblrServer(t, 3)
	m.mu.Lock()
	m.missing[2] = true
	m.mu.Unlock()
	cfg := testConfig(t, m)

	s := New(cfg, logger.NewNopLogger())
	rep := &recordingReporter{}
	s.SetReporter(rep)

	result, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Posts)
	require.Len(t, rep.failed, 1)
	assert.Contains(t, rep.failed[0], "missing2.png")
	assert.Equal(t, []string{"1 - p1.png"}, listDir(t, filepath.Join(cfg.Output.BaseDirectory, tumblr.PicsFolder)))
	assert.Equal(t, []string{"3 - v3.mp4"}, listDir(t, filepath.Join(cfg.Output.BaseDirectory, tumblr.VideosFolder)))
}

func TestRunDumpThenExportFromSnapshot(t *testing.T) {
	m := newMockTumblrServer(t, 8)
	cfg := testConfig(t, m)
	snapshot := filepath.Join(t.TempDir(), "likes.json")

	cfg.Mode.DumpPath = snapshot
	result, err := New(cfg, logger.NewNopLogger()).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "dump", result.Mode)
	assert.Equal(t, 8, result.Posts)
	assert.Equal(t, int32(0), m.mediaCalls.Load())
	assert.NoDirExists(t, cfg.Output.BaseDirectory)

	posts, err := dump.ReadFile(snapshot)
	require.NoError(t, err)
	require.Len(t, posts, 8)
	assert.Equal(t, uint64(8), posts[0].ID)

	likesCalls := m.likesCalls.Load()
	page := filepath.Join(filepath.Dir(cfg.Output.ExportDirectory), "likes.html")
	cfg.Mode.DumpPath = ""
	cfg.Mode.RestorePath = snapshot
	cfg.Mode.ExportPath = page

	s := New(cfg, logger.NewNopLogger())
	result, err = s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "export", result.Mode)
	assert.Equal(t, 8, result.Posts)
	assert.Equal(t, likesCalls, m.likesCalls.Load())

	html, err := os.ReadFile(page)
	require.NoError(t, err)
	assert.Equal(t, 8, strings.Count(string(html), `<article class="card`))
	assert.Contains(t, string(html), "Likes of staff")
	assert.Contains(t, string(html), `src="export/p8.png"`)
	assert.FileExists(t, filepath.Join(cfg.Output.ExportDirectory, "p8.png"))
	assert.FileExists(t, filepath.Join(cfg.Output.ExportDirectory, "v3.mp4"))
}

func TestRunRejectedCount(t *testing.T) {
	m := newMockTumblrServer(t, 5)
	m.mu.Lock()
	m.reject = true
	m.mu.Unlock()
	cfg := testConfig(t, m)

	_, err := New(cfg, logger.NewNopLogger()).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLikesUnavailable)
	assert.True(t, apperrors.IsKind(err, apperrors.KindRemote))
	assert.Equal(t, int32(1), m.likesCalls.Load())
	assert.NoDirExists(t, cfg.Output.BaseDirectory)
}

func TestRunRestoreMalformedSnapshot(t *testing.T) {
	m := newMockTumblrServer(t, 1)
	cfg := testConfig(t, m)
	snapshot := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(snapshot, []byte(`{"not":"an array"}`), 0644))
	cfg.Mode.RestorePath = snapshot

	s := New(cfg, logger.NewNopLogger())
	_, err := s.Run(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindFormat))
	assert.False(t, apperrors.IsFatal(err))
	assert.Equal(t, StateRestoring, s.State())
	assert.Equal(t, int32(0), m.likesCalls.Load())
}

func TestRunCancelled(t *testing.T) {
	m := newMockTumblrServer(t, 3)
	cfg := testConfig(t, m)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(cfg, logger.NewNopLogger()).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "fetching", StateFetching.String())
	assert.Equal(t, "renaming", StateRenaming.String())
	assert.Equal(t, "state(42)", State(42).String())
	assert.Equal(t, "Downloading", phaseLabel(StateDownloading))
}

func TestSelectConsumerFinishStates(t *testing.T) {
	m := newMockTumblrServer(t, 1)

	tests := []struct {
		name   string
		mutate func(cfg *config.Config)
		state  State
		finish State
	}{
		{"download", func(cfg *config.Config) {}, StateDownloading, StateRenaming},
		{"dump", func(cfg *config.Config) { cfg.Mode.DumpPath = filepath.Join(t.TempDir(), "likes.json") }, StateDumping, StateDumping},
		{"export", func(cfg *config.Config) { cfg.Mode.ExportPath = filepath.Join(t.TempDir(), "likes.html") }, StateExporting, StateExporting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, m)
			tt.mutate(cfg)

			s := New(cfg, logger.NewNopLogger())
			consumer, state, _, err := s.selectConsumer()
			require.NoError(t, err)
			assert.Equal(t, tt.name, consumer.Name())
			assert.Equal(t, tt.state, state)
			assert.Equal(t, tt.finish, consumer.FinishState())

			renamed, err := consumer.Finish(context.Background())
			require.NoError(t, err)
			assert.Zero(t, renamed)
		})
	}
}
