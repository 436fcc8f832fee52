package config

const (
	defaultStateDir        = "~/.local/share/hlspack"
	defaultLogDir          = "~/.local/share/hlspack/logs"
	defaultFFprobeBinary   = "ffprobe"
	defaultFFmpegBinary    = "ffmpeg"
	defaultThreads         = 2
	defaultKeyFile         = "~/.config/hlspack/enc.key"
	defaultKeyURI          = "enc.key"
	defaultVideoCodec      = "h264_nvenc"
	defaultHWAccel         = "cuda"
	defaultProfile         = "high"
	defaultFrameRate       = 25
	defaultCRF             = 20
	defaultGOP             = 48
	defaultSegmentSeconds  = 6
	defaultAudioCodec      = "aac"
	defaultAudioBitrate    = "128k"
	defaultAudioSampleRate = 44100
	defaultStartNumber     = 1
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultHistoryEnabled  = true
	defaultHistoryFile     = "history.db"
	defaultMirrorPrefix    = "hls"
	defaultNtfyTimeout     = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Tools: Tools{
			FFprobe: defaultFFprobeBinary,
			FFmpeg:  defaultFFmpegBinary,
			Threads: defaultThreads,
		},
		Encryption: Encryption{
			KeyFile: defaultKeyFile,
			KeyURI:  defaultKeyURI,
		},
		Encode: Encode{
			VideoCodec:      defaultVideoCodec,
			HWAccel:         defaultHWAccel,
			Profile:         defaultProfile,
			FrameRate:       defaultFrameRate,
			CRF:             defaultCRF,
			GOP:             defaultGOP,
			SegmentSeconds:  defaultSegmentSeconds,
			AudioCodec:      defaultAudioCodec,
			AudioBitrate:    defaultAudioBitrate,
			AudioSampleRate: defaultAudioSampleRate,
			StartNumber:     defaultStartNumber,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		History: History{
			Enabled: defaultHistoryEnabled,
		},
		Mirror: Mirror{
			Prefix: defaultMirrorPrefix,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
			OnSuccess:      true,
		},
	}
}
