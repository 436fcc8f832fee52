// Package classify turns ffprobe output into a source probe, a quality class
// and an aspect ratio.
package classify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"hlspack/internal/logging"
	"hlspack/internal/media/ffprobe"
)

var (
	// ErrUnparsable marks probe output that could not be decoded.
	ErrUnparsable = errors.New("probe output unparsable")
	// ErrNoVideo marks probe output without a usable video stream.
	ErrNoVideo = errors.New("probe found no video stream")
)

// QualityClass buckets a source by height. Lower ordinals are higher
// resolutions.
type QualityClass int

const (
	FHDClass QualityClass = -1
	HDClass  QualityClass = 0
	SDClass  QualityClass = 1
	LowClass QualityClass = 2
)

// String returns the short class label.
func (c QualityClass) String() string {
	switch c {
	case FHDClass:
		return "FHD"
	case HDClass:
		return "HD"
	case SDClass:
		return "SD"
	case LowClass:
		return "LOW"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Valid reports whether c is one of the four defined classes.
func (c QualityClass) Valid() bool {
	return c >= FHDClass && c <= LowClass
}

// SourceProbe is the metadata read once from the source.
type SourceProbe struct {
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	DurationSeconds float64 `json:"duration_seconds"`
}

// Result bundles the probe with its derived class and aspect ratio.
type Result struct {
	Probe       SourceProbe  `json:"probe"`
	Class       QualityClass `json:"class"`
	AspectRatio float64      `json:"aspect_ratio"`
}

// Prober runs the probe collaborator against a source path.
type Prober interface {
	Probe(ctx context.Context, path string) (ffprobe.Result, error)
}

// FFprobe is the production Prober.
type FFprobe struct {
	Binary string
	Logger *slog.Logger
}

// Probe runs ffprobe and logs its diagnostic output.
func (p FFprobe) Probe(ctx context.Context, path string) (ffprobe.Result, error) {
	result, err := ffprobe.Inspect(ctx, p.Binary, path)
	if err != nil {
		return ffprobe.Result{}, err
	}
	logger := p.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	if result.Stderr != "" {
		logger.Debug("ffprobe diagnostics", logging.String("stderr", result.Stderr))
	}
	if result.ExitErr != nil {
		logging.WarnWithContext(logger, "ffprobe exited non-zero; using its output", "probe_exit_nonzero",
			logging.Error(result.ExitErr),
			logging.String(logging.FieldErrorHint, "inspect the source file with ffprobe manually"),
			logging.String(logging.FieldImpact, "classification relies on partial probe output"),
		)
	}
	return result, nil
}

// ClassOf maps a source height to its quality class.
func ClassOf(height int) QualityClass {
	switch {
	case height > 720:
		return FHDClass
	case height > 480:
		return HDClass
	case height >= 360:
		return SDClass
	default:
		return LowClass
	}
}

// Classify probes path once and derives the class and aspect ratio.
func Classify(ctx context.Context, prober Prober, path string) (Result, error) {
	if prober == nil {
		return Result{}, errors.New("classify: prober is nil")
	}
	raw, err := prober.Probe(ctx, path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUnparsable, err)
	}
	return FromResult(raw)
}

// FromResult derives a classification from decoded ffprobe output.
func FromResult(raw ffprobe.Result) (Result, error) {
	stream, ok := raw.FirstStream()
	if !ok || stream.Height <= 0 || stream.Width <= 0 {
		return Result{}, ErrNoVideo
	}
	duration := raw.DurationSeconds()
	if math.IsNaN(duration) {
		return Result{}, fmt.Errorf("%w: duration %q", ErrUnparsable, raw.Format.Duration)
	}

	probe := SourceProbe{
		Width:           stream.Width,
		Height:          stream.Height,
		DurationSeconds: duration,
	}
	return Result{
		Probe:       probe,
		Class:       ClassOf(probe.Height),
		AspectRatio: float64(probe.Width) / float64(probe.Height),
	}, nil
}
