package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"quantum/internal/blend"
	"quantum/internal/catalog"
	"quantum/internal/config"
	"quantum/internal/dispatch"
	"quantum/internal/logging"
	"quantum/internal/mastering"
	"quantum/internal/media/ffmpeg"
	"quantum/internal/report"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) ensureLogger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		logger, err := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			OutputPaths: []string{
				"stderr",
				filepath.Join(cfg.Paths.LogDir, "quantum.log"),
			},
		})
		if err != nil {
			c.loggerErr = err
			return
		}
		c.logger = logger
	})
	return c.logger, c.loggerErr
}

func (c *commandContext) newResolver() (*catalog.Resolver, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}
	return catalog.NewResolver(cfg.Paths.MusicDirs, cfg.ExtractedDir(), cfg.Matchering.FFprobeBinary, logger), nil
}

// newDispatcher wires the engine, decoder, and blender from config plus
// per-command overrides. progressSink may be nil.
func (c *commandContext) newDispatcher(presetName string, workers int, progressSink dispatch.Progress) (*dispatch.Dispatcher, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	engine := mastering.NewCLI(mastering.WithBinary(cfg.Matchering.Binary))
	decoder := ffmpeg.NewTool(cfg.Matchering.FFmpegBinary, cfg.Matchering.FFprobeBinary).
		WithTimeout(time.Duration(cfg.Matchering.TimeoutSecs) * time.Second)
	blender := blend.NewBlender(decoder, cfg.BlendsDir(), logger)

	if workers <= 0 {
		workers = cfg.Processing.Workers
	}
	opts := dispatch.Options{
		Workers:       workers,
		MastersDir:    cfg.MastersDir(),
		OutputFormat:  cfg.Output.Format,
		BitDepth:      cfg.Output.BitDepth,
		PresetName:    presetName,
		DefaultPreset: cfg.Processing.DefaultPreset,
		Progress:      progressSink,
	}
	return dispatch.New(engine, decoder, blender, opts, logger), nil
}

func (c *commandContext) openStore() (*report.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return report.Open(cfg)
}
