// Package catalog resolves arbitrary inputs (files, directories, archives,
// playlists, free-text queries) into ordered audio candidates and infers
// genre tags for preset selection.
package catalog

import (
	"path/filepath"
	"strings"
)

// InputKind describes what the raw input turned out to be.
type InputKind string

const (
	KindFile      InputKind = "file"
	KindDirectory InputKind = "directory"
	KindArchive   InputKind = "archive"
	KindPlaylist  InputKind = "playlist"
	KindQuery     InputKind = "query"
)

// Candidate is a resolved audio source. Immutable once resolved.
type Candidate struct {
	Path     string
	Format   string
	Genre    Genre
	Duration float64
}

// ID returns the stable identifier used in logs and reports.
func (c Candidate) ID() string {
	return filepath.Base(c.Path)
}

// Stem returns the filename without its extension.
func (c Candidate) Stem() string {
	base := filepath.Base(c.Path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

var audioExtensions = map[string]struct{}{
	".wav":  {},
	".mp3":  {},
	".flac": {},
	".aiff": {},
	".ogg":  {},
	".m4a":  {},
	".wma":  {},
	".opus": {},
}

var playlistExtensions = map[string]struct{}{
	".txt": {},
	".m3u": {},
	".pls": {},
}

// IsAudioPath reports whether the path carries a recognized audio extension.
func IsAudioPath(path string) bool {
	_, ok := audioExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// IsPlaylistPath reports whether the path looks like a playlist file.
func IsPlaylistPath(path string) bool {
	_, ok := playlistExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// IsArchivePath reports whether the path is a supported archive.
func IsArchivePath(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".zip")
}

func newCandidate(path string) Candidate {
	return Candidate{
		Path:   path,
		Format: strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		Genre:  DetectGenre(path),
	}
}
