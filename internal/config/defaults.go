package config

const (
	defaultConfigPath      = "~/.config/sidecar/config.toml"
	defaultLogDir          = "~/.local/share/sidecar/logs"
	defaultStateDir        = "~/.local/share/sidecar"
	defaultSyncBinary      = "ffs"
	defaultOutputMarker    = "synced"
	defaultBackupSuffix    = ".old"
	defaultMuxBinary       = "mkvmerge"
	defaultMuxOutputSuffix = ".MUX"
	defaultFFprobeBinary   = "ffprobe"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultLogColour       = "auto"
	defaultLogRetention    = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Library: Library{
			VideoExtensions:    []string{"mkv", "mp4", "avi"},
			SubtitleExtensions: []string{"ass", "srt"},
			DuplicatePolicy:    DuplicateLast,
		},
		Sync: Sync{
			Binary:        defaultSyncBinary,
			OutputMarker:  defaultOutputMarker,
			BackupSuffix:  defaultBackupSuffix,
			FailurePolicy: FailureHalt,
		},
		Mux: Mux{
			Binary:        defaultMuxBinary,
			OutputSuffix:  defaultMuxOutputSuffix,
			KeepLanguages: []string{"eng", "fre"},
		},
		Inspect: Inspect{
			FFprobeBinary: defaultFFprobeBinary,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			Colour:        defaultLogColour,
			RetentionDays: defaultLogRetention,
		},
	}
}
