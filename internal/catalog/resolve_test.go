package catalog

import (
	"archive/zip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"quantum/internal/mastering"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("audio"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func newTestResolver(t *testing.T, musicDirs ...string) *Resolver {
	t.Helper()
	return NewResolver(musicDirs, filepath.Join(t.TempDir(), "extracted"), "", nil)
}

func TestResolveSingleAudioFile(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "track.wav")

	candidates, kind, err := newTestResolver(t).Resolve(context.Background(), filepath.Join(dir, "track.wav"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if kind != KindFile {
		t.Fatalf("kind = %s, want file", kind)
	}
	if len(candidates) != 1 || candidates[0].Format != "wav" {
		t.Fatalf("unexpected candidates: %+v", candidates)
	}
}

func TestResolveDirectorySortsAndFilters(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "02_drop.wav", "01_intro.wav", "notes.pdf", "cover.jpg")

	candidates, kind, err := newTestResolver(t).Resolve(context.Background(), dir)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if kind != KindDirectory {
		t.Fatalf("kind = %s, want directory", kind)
	}
	if len(candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(candidates))
	}
	if candidates[0].ID() != "01_intro.wav" || candidates[1].ID() != "02_drop.wav" {
		t.Fatalf("candidates not ordered: %v, %v", candidates[0].ID(), candidates[1].ID())
	}
}

func TestResolveEmptyDirectoryFails(t *testing.T) {
	_, _, err := newTestResolver(t).Resolve(context.Background(), t.TempDir())
	if !errors.Is(err, mastering.ErrNoCandidates) {
		t.Fatalf("err = %v, want ErrNoCandidates", err)
	}
}

func TestResolveUnsupportedFileFails(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "readme.pdf")

	_, _, err := newTestResolver(t).Resolve(context.Background(), filepath.Join(dir, "readme.pdf"))
	if !errors.Is(err, mastering.ErrNoCandidates) {
		t.Fatalf("err = %v, want ErrNoCandidates", err)
	}
}

func TestResolvePlaylist(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.wav", "b.flac")
	playlist := filepath.Join(dir, "set.m3u")
	body := "# comment\na.wav\nmissing.wav\nb.flac\n"
	if err := os.WriteFile(playlist, []byte(body), 0o644); err != nil {
		t.Fatalf("write playlist: %v", err)
	}

	candidates, kind, err := newTestResolver(t).Resolve(context.Background(), playlist)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if kind != KindPlaylist {
		t.Fatalf("kind = %s, want playlist", kind)
	}
	if len(candidates) != 2 {
		t.Fatalf("candidates = %d, want 2 (missing entry skipped)", len(candidates))
	}
}

func TestResolveQuerySearchesMusicDirs(t *testing.T) {
	musicDir := t.TempDir()
	writeFiles(t, musicDir, "My_Trap_Beat.wav", "other.wav")

	candidates, kind, err := newTestResolver(t, musicDir).Resolve(context.Background(), "trap_beat")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if kind != KindQuery {
		t.Fatalf("kind = %s, want query", kind)
	}
	if len(candidates) != 1 || candidates[0].ID() != "My_Trap_Beat.wav" {
		t.Fatalf("unexpected candidates: %+v", candidates)
	}
}

func TestResolveQueryNoMatchFails(t *testing.T) {
	_, _, err := newTestResolver(t, t.TempDir()).Resolve(context.Background(), "does-not-exist")
	if !errors.Is(err, mastering.ErrNoCandidates) {
		t.Fatalf("err = %v, want ErrNoCandidates", err)
	}
}

func TestResolveArchiveExtractsAndScans(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "album.zip")
	out, err := os.Create(archivePath)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	zw := zip.NewWriter(out)
	for _, name := range []string{"01_one.wav", "02_two.wav", "notes.txt"} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := w.Write([]byte("audio")); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	candidates, kind, err := newTestResolver(t).Resolve(context.Background(), archivePath)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if kind != KindArchive {
		t.Fatalf("kind = %s, want archive", kind)
	}
	if len(candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(candidates))
	}
}

func TestResolveEnrichesFromProbe(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "untitled mix.wav")

	stub := filepath.Join(t.TempDir(), "ffprobe")
	script := "#!/bin/sh\ncat <<'EOF'\n" +
		`{"streams":[{"index":0,"codec_type":"audio","sample_rate":"44100","channels":2}],"format":{"duration":"212.5","tags":{"GENRE":"Jazz"}}}` +
		"\nEOF\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	resolver := NewResolver(nil, filepath.Join(t.TempDir(), "extracted"), stub, nil)
	candidates, _, err := resolver.Resolve(context.Background(), filepath.Join(dir, "untitled mix.wav"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if candidates[0].Duration != 212.5 {
		t.Fatalf("Duration = %v, want 212.5", candidates[0].Duration)
	}
	if candidates[0].Genre != GenreJazz {
		t.Fatalf("Genre = %s, want jazz", candidates[0].Genre)
	}
}

func TestGenreDetection(t *testing.T) {
	cases := []struct {
		path string
		want Genre
	}{
		{"trap_beat1.wav", GenreTrap},
		{"lofi_808_study.wav", GenreTrap},
		{"boom bap demo.wav", GenreHipHop},
		{"big_room_house.wav", GenreElectronic},
		{"symphony_no5.flac", GenreClassical},
		{"untitled mix.wav", GenreGeneral},
	}
	for _, tc := range cases {
		if got := DetectGenre(tc.path); got != tc.want {
			t.Fatalf("DetectGenre(%q) = %s, want %s", tc.path, got, tc.want)
		}
	}
}

func TestDominantGenre(t *testing.T) {
	candidates := []Candidate{
		{Genre: GenreTrap},
		{Genre: GenreTrap},
		{Genre: GenreJazz},
	}
	if got := DominantGenre(candidates); got != GenreTrap {
		t.Fatalf("DominantGenre = %s, want trap", got)
	}
	if got := DominantGenre(nil); got != GenreGeneral {
		t.Fatalf("DominantGenre(nil) = %s, want general", got)
	}
}
