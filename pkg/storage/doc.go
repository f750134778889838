// Package storage manages one media folder on disk.
//
// A Folder answers the dedup question (does any entry already contain this
// remote filename?) by scanning the directory on every call. Files written by an
// earlier run and later given an index prefix still match.
// Writes go through a hidden partial file that is renamed into place once the
// body has been copied in full.
package storage
