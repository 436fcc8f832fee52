package ffprobe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// ErrInvalidOutput marks stdout that is not a well-formed ffprobe document.
var ErrInvalidOutput = errors.New("ffprobe output invalid")

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`

	// Stderr holds the diagnostic stream of the run, if any.
	Stderr string `json:"-"`
	// ExitErr is set when ffprobe exited non-zero but still printed a
	// parseable document.
	ExitErr error `json:"-"`
}

// Stream describes a single selected stream.
type Stream struct {
	Index     int    `json:"index"`
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Duration string `json:"duration"`
}

// Args returns the ffprobe arguments used to inspect path.
func Args(path string) []string {
	return []string{
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "format=duration",
		"-show_entries", "stream=width,height",
		"-of", "json",
		path,
	}
}

// Inspect executes ffprobe against the provided path and decodes stdout.
// A non-zero exit is only fatal when stdout cannot be parsed.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, Args(path)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		return Result{}, fmt.Errorf("ffprobe inspect: %w", runErr)
	}

	result, err := Parse(stdout.Bytes())
	if err != nil {
		if runErr != nil {
			return Result{}, fmt.Errorf("%w (ffprobe exited: %v: %s)", err, runErr, strings.TrimSpace(stderr.String()))
		}
		return Result{}, err
	}
	result.Stderr = strings.TrimSpace(stderr.String())
	result.ExitErr = runErr
	return result, nil
}

// Parse decodes an ffprobe JSON document.
func Parse(data []byte) (Result, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Result{}, fmt.Errorf("%w: empty document", ErrInvalidOutput)
	}
	var result Result
	if err := json.Unmarshal(trimmed, &result); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	return result, nil
}

// FirstStream returns the first stream of the document. With the stream
// selector used by Inspect that is the first video stream.
func (r Result) FirstStream() (Stream, bool) {
	if len(r.Streams) == 0 {
		return Stream{}, false
	}
	return r.Streams[0], true
}

// DurationSeconds returns the container duration in seconds, 0 when absent
// and NaN when the value is not numeric.
func (r Result) DurationSeconds() float64 {
	return parseFloat(r.Format.Duration)
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
