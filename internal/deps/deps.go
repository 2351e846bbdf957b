// Package deps verifies the external tools quantum shells out to.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"quantum/internal/config"
)

// Requirement defines an external dependency quantum relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Required lists the external binaries for the configured toolchain.
// Matchering is mandatory; ffmpeg backs decoding for blending and album
// sequencing; ffprobe only serves input inspection.
func Required(cfg *config.Config) []Requirement {
	return []Requirement{
		{
			Name:        "matchering",
			Command:     cfg.Matchering.Binary,
			Description: "external mastering engine",
		},
		{
			Name:        "ffmpeg",
			Command:     cfg.Matchering.FFmpegBinary,
			Description: "audio decode/encode for blending and sequencing",
		},
		{
			Name:        "ffprobe",
			Command:     cfg.Matchering.FFprobeBinary,
			Description: "input stream inspection",
			Optional:    true,
		},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Verify checks the configured toolchain and returns an error naming any
// missing required binary.
func Verify(cfg *config.Config) error {
	var missing []string
	for _, status := range CheckBinaries(Required(cfg)) {
		if !status.Available && !status.Optional {
			missing = append(missing, fmt.Sprintf("%s (%s)", status.Name, status.Detail))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required tools: %s", strings.Join(missing, "; "))
	}
	return nil
}
