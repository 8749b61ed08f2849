package config

const (
	defaultConfigPath       = "~/.config/hardsub/config.toml"
	defaultScratchDir       = "~/.local/share/hardsub/scratch"
	defaultLogDir           = "~/.local/share/hardsub/logs"
	defaultFontsDir         = "~/.local/share/hardsub/fonts"
	defaultHistoryPath      = "~/.local/share/hardsub/history.db"
	defaultTelegramEndpoint = "https://api.telegram.org/bot%s/%s"
	defaultFileEndpoint     = "https://api.telegram.org/file/bot%s/%s"
	defaultPollTimeout      = 60
	defaultDownloadTimeout  = 300
	defaultUploadTimeout    = 900
	defaultFFmpegBinary     = "ffmpeg"
	defaultFFprobeBinary    = "ffprobe"
	defaultProbeTimeout     = 30
	defaultStderrTailChars  = 1000
	defaultIdleTimeout      = 1800
	defaultHistoryKeep      = 500
	defaultNotifyTimeout    = 10
	defaultMinFreeGiB       = 2
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
	defaultFontName         = "HelveticaRounded-Bold"
	defaultFontFile         = "HelveticaRounded-Bold.ttf"
	tokenEnvVar             = "HARDSUB_TELEGRAM_TOKEN"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ScratchDir: defaultScratchDir,
			LogDir:     defaultLogDir,
			FontsDir:   defaultFontsDir,
		},
		Telegram: Telegram{
			APIEndpoint:     defaultTelegramEndpoint,
			FileEndpoint:    defaultFileEndpoint,
			PollTimeout:     defaultPollTimeout,
			DownloadTimeout: defaultDownloadTimeout,
			UploadTimeout:   defaultUploadTimeout,
		},
		FFmpeg: FFmpeg{
			FFmpegBinary:    defaultFFmpegBinary,
			FFprobeBinary:   defaultFFprobeBinary,
			ProbeTimeout:    defaultProbeTimeout,
			StderrTailChars: defaultStderrTailChars,
		},
		Fonts: map[string]string{
			defaultFontName: defaultFontFile,
		},
		Session: Session{
			IdleTimeout: defaultIdleTimeout,
		},
		History: History{
			Path: defaultHistoryPath,
			Keep: defaultHistoryKeep,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			JobCompleted:   true,
			JobFailed:      true,
		},
		Preflight: Preflight{
			MinFreeGiB: defaultMinFreeGiB,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
