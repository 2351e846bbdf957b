package catalog

import (
	"bufio"
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"quantum/internal/logging"
	"quantum/internal/mastering"
	"quantum/internal/media/ffmpeg"
	"quantum/internal/textutil"
)

// Resolver turns a raw input string into an ordered candidate set.
type Resolver struct {
	// MusicDirs are searched when the input is not an existing path.
	MusicDirs []string
	// ExtractedDir receives unpacked archive contents.
	ExtractedDir string
	// FFprobeBinary enables container metadata enrichment when non-empty.
	FFprobeBinary string

	logger *slog.Logger
}

// NewResolver constructs a Resolver. ffprobeBinary may be empty, in which
// case candidates carry filename-derived metadata only.
func NewResolver(musicDirs []string, extractedDir, ffprobeBinary string, logger *slog.Logger) *Resolver {
	return &Resolver{
		MusicDirs:     musicDirs,
		ExtractedDir:  extractedDir,
		FFprobeBinary: ffprobeBinary,
		logger:        logging.NewComponentLogger(logger, "resolver"),
	}
}

// Resolve inspects input and returns the ordered audio candidates it refers
// to, along with the detected input kind. An empty result is always an
// error.
func (r *Resolver) Resolve(ctx context.Context, input string) ([]Candidate, InputKind, error) {
	candidates, kind, err := r.resolve(ctx, input)
	if err != nil {
		return nil, "", err
	}
	r.enrich(ctx, candidates)
	return candidates, kind, nil
}

func (r *Resolver) resolve(ctx context.Context, input string) ([]Candidate, InputKind, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, "", mastering.Wrap(mastering.ErrNoCandidates, "resolve", "input", "empty input", nil)
	}

	info, err := os.Stat(input)
	switch {
	case err == nil && info.IsDir():
		candidates, err := r.scanDirectory(input)
		if err != nil {
			return nil, "", err
		}
		r.logger.Info("directory resolved", logging.String("path", input), logging.Int("candidates", len(candidates)))
		return candidates, KindDirectory, nil

	case err == nil:
		return r.resolveFile(ctx, input)

	default:
		candidates, err := r.search(input)
		if err != nil {
			return nil, "", err
		}
		r.logger.Info("query resolved", logging.String("query", input), logging.Int("candidates", len(candidates)))
		return candidates, KindQuery, nil
	}
}

func (r *Resolver) resolveFile(ctx context.Context, path string) ([]Candidate, InputKind, error) {
	switch {
	case IsAudioPath(path):
		return []Candidate{newCandidate(path)}, KindFile, nil

	case IsArchivePath(path):
		dest := filepath.Join(r.ExtractedDir, textutil.SanitizeFileName(stemOf(path)))
		if err := extractZip(path, dest); err != nil {
			return nil, "", err
		}
		r.logger.Info("archive extracted", logging.String("archive", path), logging.String("dest", dest))
		candidates, err := r.scanDirectory(dest)
		if err != nil {
			return nil, "", err
		}
		return candidates, KindArchive, nil

	case IsPlaylistPath(path):
		candidates, err := r.readPlaylist(path)
		if err != nil {
			return nil, "", err
		}
		r.logger.Info("playlist resolved", logging.String("playlist", path), logging.Int("candidates", len(candidates)))
		return candidates, KindPlaylist, nil

	default:
		return nil, "", mastering.Wrap(mastering.ErrNoCandidates, "resolve", "file", "unsupported file type "+filepath.Ext(path), nil)
	}
}

func (r *Resolver) scanDirectory(dir string) ([]Candidate, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.IsDir() && IsAudioPath(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, mastering.Wrap(mastering.ErrNoCandidates, "resolve", "scan", dir, err)
	}
	if len(paths) == 0 {
		return nil, mastering.Wrap(mastering.ErrNoCandidates, "resolve", "scan", dir, nil)
	}
	sort.Strings(paths)

	candidates := make([]Candidate, 0, len(paths))
	for _, path := range paths {
		candidates = append(candidates, newCandidate(path))
	}
	return candidates, nil
}

// readPlaylist parses .txt/.m3u/.pls entries, skipping blank lines and
// comments. Relative entries resolve against the playlist's directory;
// missing files are skipped.
func (r *Resolver) readPlaylist(path string) ([]Candidate, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, mastering.Wrap(mastering.ErrNoCandidates, "resolve", "playlist", path, err)
	}
	defer file.Close()

	baseDir := filepath.Dir(path)
	var candidates []Candidate

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "[") {
			continue
		}
		// .pls entries look like File1=path
		if idx := strings.Index(line, "="); idx >= 0 && strings.HasPrefix(strings.ToLower(line), "file") {
			line = strings.TrimSpace(line[idx+1:])
		}
		entry := line
		if !filepath.IsAbs(entry) {
			entry = filepath.Join(baseDir, entry)
		}
		if !IsAudioPath(entry) {
			continue
		}
		if _, err := os.Stat(entry); err != nil {
			r.logger.Warn("playlist entry missing", logging.String("entry", line))
			continue
		}
		candidates = append(candidates, newCandidate(entry))
	}
	if err := scanner.Err(); err != nil {
		return nil, mastering.Wrap(mastering.ErrNoCandidates, "resolve", "playlist", path, err)
	}
	if len(candidates) == 0 {
		return nil, mastering.Wrap(mastering.ErrNoCandidates, "resolve", "playlist", path, nil)
	}
	return candidates, nil
}

// enrich probes each candidate for container metadata. Probe failures leave
// the filename-derived fields in place; an ffprobe that cannot read a file
// is not grounds for rejecting it here.
func (r *Resolver) enrich(ctx context.Context, candidates []Candidate) {
	if r.FFprobeBinary == "" {
		return
	}
	for i := range candidates {
		result, err := ffmpeg.Inspect(ctx, r.FFprobeBinary, candidates[i].Path)
		if err != nil {
			r.logger.Debug("probe failed", logging.String("path", candidates[i].Path), logging.Error(err))
			continue
		}
		candidates[i].Duration = result.DurationSeconds()
		if candidates[i].Genre == GenreGeneral {
			if genre, ok := NormalizeGenre(result.Tag("genre")); ok {
				candidates[i].Genre = genre
			}
		}
	}
}

// search walks the configured music directories for audio files whose names
// contain the query, case-insensitively.
func (r *Resolver) search(query string) ([]Candidate, error) {
	needle := strings.ToLower(query)
	var paths []string
	for _, dir := range r.MusicDirs {
		_ = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // unreadable search dirs are skipped
			}
			if entry.IsDir() || !IsAudioPath(path) {
				return nil
			}
			if strings.Contains(strings.ToLower(filepath.Base(path)), needle) {
				paths = append(paths, path)
			}
			return nil
		})
	}
	if len(paths) == 0 {
		return nil, mastering.Wrap(mastering.ErrNoCandidates, "resolve", "search", query, nil)
	}
	sort.Strings(paths)

	candidates := make([]Candidate, 0, len(paths))
	for _, path := range paths {
		candidates = append(candidates, newCandidate(path))
	}
	return candidates, nil
}
