package catalog

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"quantum/internal/mastering"
)

// extractZip unpacks src into dest, refusing entries that would escape the
// destination directory.
func extractZip(src, dest string) error {
	reader, err := zip.OpenReader(src)
	if err != nil {
		return mastering.Wrap(mastering.ErrNoCandidates, "resolve", "extract", src, err)
	}
	defer reader.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("create extract dir %q: %w", dest, err)
	}

	for _, entry := range reader.File {
		target := filepath.Join(dest, entry.Name) //nolint:gosec // checked below
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
			return mastering.Wrap(mastering.ErrNoCandidates, "resolve", "extract", "archive entry escapes destination: "+entry.Name, nil)
		}
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create dir %q: %w", target, err)
			}
			continue
		}
		if err := extractEntry(entry, target); err != nil {
			return err
		}
	}
	return nil
}

func extractEntry(entry *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create dir for %q: %w", target, err)
	}
	in, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open archive entry %q: %w", entry.Name, err)
	}
	defer in.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("create %q: %w", target, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil { //nolint:gosec // local archives
		return fmt.Errorf("extract %q: %w", entry.Name, err)
	}
	return nil
}
