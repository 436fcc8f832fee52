package transcode

import (
	"strings"

	"hlspack/internal/config"
)

// Options are the encode settings shared by every rendition output.
type Options struct {
	Threads         int
	VideoCodec      string
	HWAccel         string
	Profile         string
	FrameRate       int
	CRF             int
	GOP             int
	SegmentSeconds  int
	AudioCodec      string
	AudioBitrate    string
	AudioSampleRate int
	StartNumber     int
}

// OptionsFromConfig copies the [tools] and [encode] settings.
func OptionsFromConfig(cfg *config.Config) Options {
	if cfg == nil {
		d := config.Default()
		cfg = &d
	}
	enc := cfg.Encode
	return Options{
		Threads:         cfg.Tools.Threads,
		VideoCodec:      strings.TrimSpace(enc.VideoCodec),
		HWAccel:         strings.TrimSpace(enc.HWAccel),
		Profile:         strings.TrimSpace(enc.Profile),
		FrameRate:       enc.FrameRate,
		CRF:             enc.CRF,
		GOP:             enc.GOP,
		SegmentSeconds:  enc.SegmentSeconds,
		AudioCodec:      strings.TrimSpace(enc.AudioCodec),
		AudioBitrate:    strings.TrimSpace(enc.AudioBitrate),
		AudioSampleRate: enc.AudioSampleRate,
		StartNumber:     enc.StartNumber,
	}
}
