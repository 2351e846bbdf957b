package config

const (
	defaultWorkspaceDir   = "~/.local/share/quantum/studio"
	defaultLogDir         = "~/.local/share/quantum/logs"
	defaultWorkers        = 4
	defaultPreset         = "streaming"
	defaultOutputFormat   = "wav"
	defaultOutputBitDepth = 24
	defaultBinary         = "matchering"
	defaultFFmpegBinary   = "ffmpeg"
	defaultFFprobeBinary  = "ffprobe"
	defaultTimeoutSecs    = 600
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkspaceDir: defaultWorkspaceDir,
			LogDir:       defaultLogDir,
			MusicDirs:    []string{"~/Music", "~/Downloads"},
		},
		Processing: Processing{
			Workers:       defaultWorkers,
			DefaultPreset: defaultPreset,
		},
		Output: Output{
			Format:   defaultOutputFormat,
			BitDepth: defaultOutputBitDepth,
		},
		Matchering: Matchering{
			Binary:        defaultBinary,
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			TimeoutSecs:   defaultTimeoutSecs,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
