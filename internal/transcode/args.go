package transcode

import (
	"fmt"
	"path/filepath"
	"strconv"

	"hlspack/internal/ladder"
	"hlspack/internal/progress"
)

// SegmentPattern is the ffmpeg segment filename template inside a rendition directory.
const SegmentPattern = "video-%05d.ts"

// Pass describes one ffmpeg run over the whole ladder.
type Pass struct {
	Encrypted     bool
	DurationLimit float64
}

// PassA is the encrypted pass.
func PassA(duration float64) Pass { return Pass{Encrypted: true, DurationLimit: duration} }

// PassB is the plain pass.
func PassB(duration float64) Pass { return Pass{Encrypted: false, DurationLimit: duration} }

// Label names the pass for logs.
func (p Pass) Label() string { return progress.PassLabel(p.Encrypted) }

// BuildArgs assembles the ffmpeg arguments for one pass. Every rendition is
// an extra output of the same input, each preceded by the shared options.
// keyInfoPath is only used when the pass is encrypted.
func BuildArgs(input, workDir string, plan ladder.Plan, pass Pass, opts Options, keyInfoPath string) []string {
	args := []string{"-hide_banner", "-y"}
	if opts.HWAccel != "" {
		args = append(args, "-hwaccel", opts.HWAccel)
	}
	args = append(args, "-i", input)
	if opts.Threads > 0 {
		args = append(args, "-threads", strconv.Itoa(opts.Threads))
	}

	shared := sharedOutputArgs(pass, opts, keyInfoPath)
	for _, r := range plan.Renditions {
		dir := filepath.Join(workDir, r.Dir)
		args = append(args, shared...)
		args = append(args,
			"-vf", fmt.Sprintf("scale=%d:%d", r.Width, r.Height),
			"-b:v", kbps(r.BitrateKbps),
			"-maxrate", kbps(r.BitrateKbps),
			"-bufsize", kbps(r.BufferKbps),
			"-hls_segment_filename", filepath.Join(dir, SegmentPattern),
			filepath.Join(dir, ladder.SubManifest),
		)
	}
	return args
}

func sharedOutputArgs(pass Pass, opts Options, keyInfoPath string) []string {
	out := []string{
		"-c:a", opts.AudioCodec,
		"-ar", strconv.Itoa(opts.AudioSampleRate),
		"-c:v", opts.VideoCodec,
	}
	if opts.Profile != "" {
		out = append(out, "-profile:v", opts.Profile)
	}
	out = append(out,
		"-r", strconv.Itoa(opts.FrameRate),
		"-crf", strconv.Itoa(opts.CRF),
		"-sc_threshold", "0",
		"-g", strconv.Itoa(opts.GOP),
		"-keyint_min", strconv.Itoa(opts.GOP),
		"-hls_time", strconv.Itoa(opts.SegmentSeconds),
		"-hls_playlist_type", "vod",
		"-b:a", opts.AudioBitrate,
		"-start_number", strconv.Itoa(opts.StartNumber),
		"-ss", "0",
	)
	if pass.DurationLimit > 0 {
		out = append(out, "-t", strconv.FormatFloat(pass.DurationLimit, 'f', -1, 64))
	}
	if pass.Encrypted && keyInfoPath != "" {
		out = append(out, "-hls_key_info_file", keyInfoPath)
	}
	return out
}

func kbps(v int) string {
	return strconv.Itoa(v) + "k"
}
