package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.WorkspaceDir, err = expandPath(c.Paths.WorkspaceDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	expanded := make([]string, 0, len(c.Paths.MusicDirs))
	for _, dir := range c.Paths.MusicDirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		dir, err = expandPath(dir)
		if err != nil {
			return err
		}
		expanded = append(expanded, dir)
	}
	c.Paths.MusicDirs = expanded

	c.Processing.DefaultPreset = strings.ToLower(strings.TrimSpace(c.Processing.DefaultPreset))
	if c.Processing.DefaultPreset == "" {
		c.Processing.DefaultPreset = defaultPreset
	}
	if c.Processing.Workers <= 0 {
		c.Processing.Workers = defaultWorkers
	}

	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	if c.Output.Format == "" {
		c.Output.Format = defaultOutputFormat
	}
	if c.Output.BitDepth == 0 {
		c.Output.BitDepth = defaultOutputBitDepth
	}

	c.Matchering.Binary = strings.TrimSpace(c.Matchering.Binary)
	if c.Matchering.Binary == "" {
		c.Matchering.Binary = defaultBinary
	}
	c.Matchering.FFmpegBinary = strings.TrimSpace(c.Matchering.FFmpegBinary)
	if c.Matchering.FFmpegBinary == "" {
		c.Matchering.FFmpegBinary = defaultFFmpegBinary
	}
	c.Matchering.FFprobeBinary = strings.TrimSpace(c.Matchering.FFprobeBinary)
	if c.Matchering.FFprobeBinary == "" {
		c.Matchering.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Matchering.TimeoutSecs <= 0 {
		c.Matchering.TimeoutSecs = defaultTimeoutSecs
	}
	return nil
}

// Validate checks cross-field constraints after normalization.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		return fmt.Errorf("paths.workspace_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return fmt.Errorf("paths.log_dir must be set")
	}
	switch c.Output.Format {
	case "wav", "flac":
	default:
		return fmt.Errorf("output.format: unsupported value %q", c.Output.Format)
	}
	switch c.Output.BitDepth {
	case 16, 24:
	default:
		return fmt.Errorf("output.bit_depth: unsupported value %d", c.Output.BitDepth)
	}
	if c.Processing.Workers > 64 {
		return fmt.Errorf("processing.workers: %d exceeds maximum of 64", c.Processing.Workers)
	}
	return nil
}
