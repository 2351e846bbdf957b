package mastering

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

var commandContext = exec.CommandContext

// Config carries the engine parameters resolved from a preset or override.
// Threshold must stay in (0,1]; the remaining fields are passed through to
// the engine untouched.
type Config struct {
	Threshold          float64
	RMSCorrectionSteps int
	Limiter            bool
	Normalize          bool
	BitDepth           int
}

// Validate checks the invariants the engine documents for its config.
func (c Config) Validate() error {
	if c.Threshold <= 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold %.3f outside (0,1]", c.Threshold)
	}
	return nil
}

// Request describes one mastering invocation: bring the target to match the
// reference's sonic character and write the result to OutputPath.
type Request struct {
	TargetPath    string
	ReferencePath string
	OutputPath    string
	Config        Config
}

// Engine is the external mastering primitive. Implementations perform the
// spectral/loudness matching and limiting; this repository never inspects
// how.
type Engine interface {
	Master(ctx context.Context, req Request) error
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the matchering command-line engine.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "matchering"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Master runs the engine binary for a single target/reference pair.
func (c *CLI) Master(ctx context.Context, req Request) error {
	if strings.TrimSpace(req.TargetPath) == "" {
		return Wrap(ErrMastering, "engine", "master", "target path required", nil)
	}
	if strings.TrimSpace(req.OutputPath) == "" {
		return Wrap(ErrMastering, "engine", "master", "output path required", nil)
	}
	if err := req.Config.Validate(); err != nil {
		return Wrap(ErrMastering, "engine", "config", err.Error(), nil)
	}

	args := []string{
		"--target", req.TargetPath,
		"--result", req.OutputPath,
		"--threshold", strconv.FormatFloat(req.Config.Threshold, 'f', -1, 64),
	}
	// Without a reference the engine falls back to its preset-driven mode.
	if req.ReferencePath != "" {
		args = append(args, "--reference", req.ReferencePath)
	}
	if req.Config.RMSCorrectionSteps > 0 {
		args = append(args, "--rms-steps", strconv.Itoa(req.Config.RMSCorrectionSteps))
	}
	if !req.Config.Limiter {
		args = append(args, "--no-limiter")
	}
	if !req.Config.Normalize {
		args = append(args, "--no-normalize")
	}
	if req.Config.BitDepth > 0 {
		args = append(args, "--bit-depth", strconv.Itoa(req.Config.BitDepth))
	}

	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(ctxErr, context.Canceled) {
			return ctxErr
		}
		return Wrap(ErrMastering, "engine", "master", strings.TrimSpace(string(output)), err)
	}
	return nil
}
