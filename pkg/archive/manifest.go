package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	apperrors "tumblrlikes/pkg/errors"
	"tumblrlikes/pkg/tumblr"
)

// ManifestFileName is written at the root of the output directory
const ManifestFileName = "manifest.json"

// Manifest describes a finished download run
type Manifest struct {
	Blog        string          `json:"blog"`
	GeneratedAt time.Time       `json:"generated_at"`
	Posts       int             `json:"posts"`
	Files       int             `json:"files"`
	Entries     []ManifestEntry `json:"entries"`
}

// ManifestEntry is one liked post, numbered in like order
type ManifestEntry struct {
	Index   int            `json:"index"`
	PostID  uint64         `json:"post_id"`
	PostURL string         `json:"post_url"`
	Blog    string         `json:"blog_name"`
	Kind    string         `json:"kind"`
	Date    string         `json:"date"`
	Tags    []string       `json:"tags,omitempty"`
	Files   []ManifestFile `json:"files,omitempty"`
}

// ManifestFile is one stored media file
type ManifestFile struct {
	Path   string `json:"path"`
	Name   string `json:"name"`
	MIME   string `json:"mime,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// BuildManifest describes groups, oldest like first. File paths are made
// relative to root when possible.
func BuildManifest(blog, root string, groups []Group) *Manifest {
	m := &Manifest{
		Blog:        blog,
		GeneratedAt: time.Now().UTC(),
		Posts:       len(groups),
		Entries:     make([]ManifestEntry, 0, len(groups)),
	}

	for i := len(groups) - 1; i >= 0; i-- {
		post := groups[i].Post
		entry := ManifestEntry{
			Index:   IndexOf(i, len(groups)),
			PostID:  post.ID,
			PostURL: post.PostURL,
			Blog:    post.BlogName,
			Kind:    post.Kind().String(),
			Date:    post.Date,
			Tags:    post.Tags,
		}

		for j, file := range groups[i].Files {
			if file == nil {
				continue
			}
			mf := ManifestFile{Path: relativeTo(root, file.Path), Name: file.Name, MIME: file.MIME}
			if post.Kind() == tumblr.KindPhoto && len(post.Photos) == len(groups[i].Files) {
				mf.Width = post.Photos[j].OriginalSize.Width
				mf.Height = post.Photos[j].OriginalSize.Height
			}
			entry.Files = append(entry.Files, mf)
			m.Files++
		}

		m.Entries = append(m.Entries, entry)
	}

	return m
}

// Save writes the manifest as indented JSON
func (m *Manifest) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return apperrors.Filesystem("write manifest", err)
	}
	return nil
}

// LoadManifest reads a manifest written by Save
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Filesystem("read manifest", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, apperrors.Format("read manifest", err)
	}
	return &m, nil
}

func relativeTo(root, path string) string {
	if root == "" {
		return path
	}
	if rel, err := filepath.Rel(root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}
