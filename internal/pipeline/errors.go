package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"hlspack/internal/classify"
	"hlspack/internal/preflight"
	"hlspack/internal/publish"
	"hlspack/internal/transcode"
)

var (
	ErrDestinationExists = errors.New("destination exists")
	ErrTranscode         = errors.New("transcode failed")
	ErrProbeParse        = errors.New("probe output unparsable")
	ErrProbeEmpty        = errors.New("no video stream")
	ErrMissingProbe      = errors.New("ffprobe missing")
	ErrMissingTranscoder = errors.New("ffmpeg missing")
	ErrMissingKey        = errors.New("encryption key missing")
	ErrInternal          = errors.New("internal error")
)

var exitCodes = []struct {
	marker error
	code   int
	hint   string
}{
	{ErrDestinationExists, 1, "choose a destination that does not exist yet"},
	{ErrTranscode, 2, "inspect the ffmpeg output in the job log"},
	{ErrProbeParse, 3, "check that the source is a readable media file"},
	{ErrProbeEmpty, 4, "the source has no usable video stream"},
	{ErrMissingProbe, 5, "install ffprobe or set tools.ffprobe"},
	{ErrMissingTranscoder, 6, "install ffmpeg or set tools.ffmpeg"},
	{ErrMissingKey, 7, "create the key file named by encryption.key_file"},
	{ErrInternal, 8, "the working directory was left in place for inspection"},
}

// Wrap builds an error message that includes stage context while tagging it
// with marker. A nil marker is derived from err.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = markerFor(err)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ExitCode maps a job error to the process exit status. nil is success.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	for _, entry := range exitCodes {
		if errors.Is(err, entry.marker) {
			return entry.code
		}
	}
	return 8
}

// Hint returns a short remediation for a job error.
func Hint(err error) string {
	for _, entry := range exitCodes {
		if errors.Is(err, entry.marker) {
			return entry.hint
		}
	}
	return "check logs for details"
}

// markerFor maps errors from the stage packages onto the pipeline markers.
func markerFor(err error) error {
	switch {
	case err == nil:
		return ErrInternal
	case errors.Is(err, preflight.ErrDestinationExists),
		errors.Is(err, publish.ErrDestinationExists),
		errors.Is(err, publish.ErrLocked):
		return ErrDestinationExists
	case errors.Is(err, preflight.ErrMissingProbe):
		return ErrMissingProbe
	case errors.Is(err, preflight.ErrMissingTranscoder):
		return ErrMissingTranscoder
	case errors.Is(err, preflight.ErrMissingKey):
		return ErrMissingKey
	case errors.Is(err, classify.ErrNoVideo):
		return ErrProbeEmpty
	case errors.Is(err, classify.ErrUnparsable):
		return ErrProbeParse
	case errors.Is(err, transcode.ErrTranscode):
		return ErrTranscode
	default:
		return ErrInternal
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "job failure"
	}
	return strings.Join(parts, ": ")
}
