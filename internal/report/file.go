package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"quantum/internal/dispatch"
)

// WriteFile persists the rendered run report as a text file under dir,
// named by the run's timestamp and short id so listings sort
// chronologically. Returns the written path.
func WriteFile(dir string, run Run, input string, outcome dispatch.Outcome) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create reports dir: %w", err)
	}

	var buf bytes.Buffer
	RenderOutcome(&buf, input, outcome)

	name := fmt.Sprintf("%s_%s.txt", run.CreatedAt.Format("20060102-150405"), shortID(run.ID))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write report file: %w", err)
	}
	return path, nil
}
