// Package dump writes liked posts to a JSON snapshot and reads them back.
//
// A snapshot is a JSON array of posts exactly as the API returned them
// (within the fields the archiver models). Restoring a snapshot yields the
// same posts in the same order.
package dump

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	apperrors "tumblrlikes/pkg/errors"
	"tumblrlikes/pkg/tumblr"
)

// Encode writes posts to w as an indented JSON array
func Encode(w io.Writer, posts []tumblr.Post) error {
	if posts == nil {
		posts = []tumblr.Post{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(posts); err != nil {
		return apperrors.Filesystem("write dump", err)
	}
	return nil
}

// WriteFile writes posts to path, replacing any previous snapshot only once
// the new one is complete
func WriteFile(path string, posts []tumblr.Post) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.Filesystem("create dump directory", err)
	}

	tmp, err := os.CreateTemp(dir, ".dump-*.json")
	if err != nil {
		return apperrors.Filesystem("create dump", err)
	}
	defer os.Remove(tmp.Name())

	buf := bufio.NewWriter(tmp)
	if err := Encode(buf, posts); err != nil {
		tmp.Close()
		return err
	}
	if err := buf.Flush(); err != nil {
		tmp.Close()
		return apperrors.Filesystem("write dump", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.Filesystem("close dump", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return apperrors.Filesystem("rename dump", err)
	}
	return nil
}

// Decode reads a snapshot from r. Anything that is not an array of posts
// with known fields is a format error. Every post Encode writes decodes back
// unchanged.
func Decode(r io.Reader) ([]tumblr.Post, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var posts []tumblr.Post
	if err := dec.Decode(&posts); err != nil {
		return nil, classify(err)
	}

	if dec.More() {
		return nil, apperrors.Format("restore", errors.New("trailing data after post array"))
	}
	if posts == nil {
		return nil, apperrors.Format("restore", errors.New("document is null, expected an array of posts"))
	}

	return posts, nil
}

// ReadFile reads the snapshot at path
func ReadFile(path string) ([]tumblr.Post, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Filesystem("open dump", err)
	}
	defer f.Close()

	return Decode(bufio.NewReader(f))
}

// classify separates malformed documents from read failures. Errors the
// decoder raises itself, unknown fields included, carry a "json: " prefix.
func classify(err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.Is(err, io.EOF):
		return apperrors.Format("restore", errors.New("empty document"))
	case errors.As(err, &syntaxErr), errors.As(err, &typeErr),
		errors.Is(err, io.ErrUnexpectedEOF), strings.HasPrefix(err.Error(), "json: "):
		return apperrors.Format("restore", err)
	default:
		return apperrors.Filesystem("read dump", err)
	}
}
