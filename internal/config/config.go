package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkspaceDir string `toml:"workspace_dir"`
	LogDir       string `toml:"log_dir"`
	// MusicDirs are searched, in order, when the input is a free-text query
	// instead of a path.
	MusicDirs []string `toml:"music_dirs"`
}

// Processing contains dispatcher tuning.
type Processing struct {
	Workers       int    `toml:"workers"`
	DefaultPreset string `toml:"default_preset"`
}

// Output contains master output settings passed through to the engine.
type Output struct {
	Format   string `toml:"format"`
	BitDepth int    `toml:"bit_depth"`
}

// Matchering contains the external tool bindings.
type Matchering struct {
	Binary        string `toml:"binary"`
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
	TimeoutSecs   int    `toml:"timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for quantum.
//
// Configuration sections by subsystem:
//   - Paths: workspace layout and query search directories
//   - Processing: worker count and default preset for untagged candidates
//   - Output: master format and bit depth
//   - Matchering: external engine and ffmpeg/ffprobe binaries
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Processing Processing `toml:"processing"`
	Output     Output     `toml:"output"`
	Matchering Matchering `toml:"matchering"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/quantum/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("quantum.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// Workspace subdirectories, mirroring the studio layout the reporting
// collaborators expect.
const (
	MastersSubdir   = "masters"
	ExtractedSubdir = "extracted"
	ReportsSubdir   = "reports"
	BlendsSubdir    = "blends"
)

// EnsureDirectories creates required workspace directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.WorkspaceDir,
		c.Paths.LogDir,
		filepath.Join(c.Paths.WorkspaceDir, MastersSubdir),
		filepath.Join(c.Paths.WorkspaceDir, ExtractedSubdir),
		filepath.Join(c.Paths.WorkspaceDir, ReportsSubdir),
		filepath.Join(c.Paths.WorkspaceDir, BlendsSubdir),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// MastersDir returns the directory mastered output is written to.
func (c *Config) MastersDir() string {
	return filepath.Join(c.Paths.WorkspaceDir, MastersSubdir)
}

// ExtractedDir returns the directory archives are unpacked into.
func (c *Config) ExtractedDir() string {
	return filepath.Join(c.Paths.WorkspaceDir, ExtractedSubdir)
}

// ReportsDir returns the directory per-run report files are written to.
func (c *Config) ReportsDir() string {
	return filepath.Join(c.Paths.WorkspaceDir, ReportsSubdir)
}

// BlendsDir returns the directory synthetic blend references are written to.
func (c *Config) BlendsDir() string {
	return filepath.Join(c.Paths.WorkspaceDir, BlendsSubdir)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
