// Package archive keeps the per-post file groups of a download run and
// relabels them in like order once the run has seen every post.
package archive

import (
	"tumblrlikes/internal/downloader"
	"tumblrlikes/pkg/tumblr"
)

// Group is one post and the files its media produced, in extraction order.
// A nil entry stands for media that produced no file.
type Group struct {
	Post  tumblr.Post
	Files []*downloader.File
}

// Assembler accumulates groups in arrival order (newest like first)
type Assembler struct {
	groups []Group
}

// NewAssembler creates an empty assembler
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Add records post and its files. Posts without media are recorded with an
// empty group so positions line up with the like count.
func (a *Assembler) Add(post tumblr.Post, files []*downloader.File) {
	a.groups = append(a.groups, Group{Post: post, Files: files})
}

// Groups returns the recorded groups in arrival order
func (a *Assembler) Groups() []Group {
	return a.groups
}

// Len returns the number of recorded posts
func (a *Assembler) Len() int {
	return len(a.groups)
}

// FileCount returns how many files the recorded groups hold
func (a *Assembler) FileCount() int {
	n := 0
	for _, g := range a.groups {
		for _, f := range g.Files {
			if f != nil {
				n++
			}
		}
	}
	return n
}
