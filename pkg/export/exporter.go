// Package export renders liked posts into a single self-contained HTML page
// with their media stored alongside it.
package export

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"tumblrlikes/internal/downloader"
	apperrors "tumblrlikes/pkg/errors"
	"tumblrlikes/pkg/logger"
	"tumblrlikes/pkg/tumblr"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(
	template.New("export").
		Funcs(template.FuncMap{"placeholder": func() string { return Placeholder }}).
		ParseFS(templateFS, "templates/*.tmpl"),
)

// Fetcher stores a URL at an exact path. A nil file with a nil error means
// the server had no such object.
type Fetcher interface {
	Fetch(ctx context.Context, url, path string) (*downloader.File, error)
}

// Exporter collects cards and writes them out as one HTML page
type Exporter struct {
	fetcher  Fetcher
	mediaDir string
	htmlPath string
	title    string
	policy   *bluemonday.Policy
	cards    []Card
	failed   int
	logger   logger.Logger
}

// New creates an exporter writing the page to htmlPath and media into mediaDir
func New(fetcher Fetcher, mediaDir, htmlPath string, log logger.Logger) *Exporter {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Exporter{
		fetcher:  fetcher,
		mediaDir: mediaDir,
		htmlPath: htmlPath,
		title:    "Liked posts",
		policy:   newPolicy(),
		logger:   log,
	}
}

// SetTitle sets the page title
func (e *Exporter) SetTitle(title string) {
	e.title = title
}

// newPolicy extends the UGC policy with the elements Tumblr bodies use for
// embedded media
func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("figure", "figcaption", "video", "source")
	p.AllowAttrs("controls", "poster").OnElements("video")
	p.AllowAttrs("src", "type").OnElements("video", "source")
	p.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("figure", "p", "span")
	return p
}

func (e *Exporter) sanitize(raw string) template.HTML {
	return template.HTML(e.policy.Sanitize(raw))
}

// Add renders post into a card, fetching its media into the export folder
func (e *Exporter) Add(ctx context.Context, post tumblr.Post) error {
	card := newCard(post)
	log := e.logger.WithFields(map[string]interface{}{
		"post_id": post.ID,
		"kind":    card.Kind,
	})

	switch post.Kind() {
	case tumblr.KindText:
		body, err := e.localizeBody(ctx, post.Body)
		if err != nil {
			return err
		}
		card.Body = body
	case tumblr.KindPhoto, tumblr.KindVideo:
		media, err := e.fetchMedia(ctx, post)
		if err != nil {
			return err
		}
		card.Trail = foldTrail(post.Trail, media, e.sanitize)
		if card.Trail == nil {
			card.Media = media
		}
	case tumblr.KindOther:
		card.Trail = foldTrail(post.Trail, nil, e.sanitize)
	}

	log.Debug("card rendered")
	e.cards = append(e.cards, card)
	return nil
}

// Cards returns the cards collected so far
func (e *Exporter) Cards() []Card {
	return e.cards
}

// Failed returns how many media references fell back to the placeholder
func (e *Exporter) Failed() int {
	return e.failed
}

func (e *Exporter) fetchMedia(ctx context.Context, post tumblr.Post) ([]Media, error) {
	video := post.Kind() == tumblr.KindVideo
	var media []Media
	for _, url := range tumblr.MediaURLs(post) {
		src, ok, err := e.fetch(ctx, url)
		if err != nil {
			return nil, err
		}
		media = append(media, Media{Src: src, Video: video, Failed: !ok})
	}
	return media, nil
}

// localizeBody fetches every src="..." reference of a text body and points
// the body at the local copies
func (e *Exporter) localizeBody(ctx context.Context, body *string) (template.HTML, error) {
	if body == nil {
		return "", nil
	}

	out := *body
	for _, url := range scanSources(*body) {
		src, ok, err := e.fetch(ctx, url)
		if err != nil {
			return "", err
		}
		if !ok {
			src = Placeholder
		}
		out = strings.ReplaceAll(out, url, src)
	}
	return e.sanitize(out), nil
}

// fetch stores url in the export folder and returns its path relative to the
// HTML page. ok is false when the object is unavailable or its transfer
// failed; local failures are returned as errors.
func (e *Exporter) fetch(ctx context.Context, url string) (string, bool, error) {
	name := tumblr.RemoteFilename(url)
	if name == "" {
		e.failed++
		return "", false, nil
	}

	file, err := e.fetcher.Fetch(ctx, url, filepath.Join(e.mediaDir, name))
	switch {
	case err != nil && apperrors.IsKind(err, apperrors.KindTransfer):
		e.logger.WithError(err).WithField("url", url).Warn("could not fetch media")
		e.failed++
		return "", false, nil
	case err != nil:
		return "", false, err
	case file == nil:
		e.failed++
		return "", false, nil
	}

	return e.relative(file.Path), true, nil
}

func (e *Exporter) relative(path string) string {
	base, err := filepath.Abs(filepath.Dir(e.htmlPath))
	if err != nil {
		return filepath.ToSlash(path)
	}
	target, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// scanSources returns the distinct values of literal src="..." attributes in
// order of first appearance
func scanSources(body string) []string {
	const marker = `src="`

	var sources []string
	seen := make(map[string]bool)
	rest := body
	for {
		i := strings.Index(rest, marker)
		if i < 0 {
			break
		}
		rest = rest[i+len(marker):]
		j := strings.IndexByte(rest, '"')
		if j < 0 {
			break
		}
		src := rest[:j]
		rest = rest[j+1:]
		if src != "" && !seen[src] {
			seen[src] = true
			sources = append(sources, src)
		}
	}
	return sources
}

// Render writes the full page to w
func (e *Exporter) Render(w io.Writer) error {
	return pageTemplate.ExecuteTemplate(w, "page", struct {
		Title string
		Cards []Card
	}{Title: e.title, Cards: e.cards})
}

// Write renders the page and writes it to the HTML path in one go
func (e *Exporter) Write() error {
	var buf bytes.Buffer
	if err := e.Render(&buf); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(e.htmlPath), 0755); err != nil {
		return apperrors.Filesystem("create export directory", err)
	}
	if err := os.WriteFile(e.htmlPath, buf.Bytes(), 0644); err != nil {
		return apperrors.Filesystem("write export page", err)
	}

	e.logger.WithFields(map[string]interface{}{
		"path":   e.htmlPath,
		"cards":  len(e.cards),
		"failed": e.failed,
	}).Info("export written")
	return nil
}
