package preflight

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"hlspack/internal/config"
	"hlspack/internal/deps"
	"hlspack/internal/fileutil"
)

var (
	ErrDestinationExists = errors.New("destination already exists")
	ErrMissingProbe      = errors.New("ffprobe not found")
	ErrMissingTranscoder = errors.New("ffmpeg not found")
	ErrMissingKey        = errors.New("encryption key file not found")
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// CheckJob verifies the preconditions of converting into dst. It only reads
// the filesystem.
func CheckJob(cfg *config.Config, dst string) error {
	if cfg == nil {
		return errors.New("preflight: config is nil")
	}
	exists, err := fileutil.Exists(dst)
	if err != nil {
		return fmt.Errorf("preflight: stat destination: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrDestinationExists, dst)
	}
	if _, err := deps.Resolve(cfg.FFprobeBinary()); err != nil {
		return fmt.Errorf("%w: %w", ErrMissingProbe, err)
	}
	if _, err := deps.Resolve(cfg.FFmpegBinary()); err != nil {
		return fmt.Errorf("%w: %w", ErrMissingTranscoder, err)
	}
	if res := CheckKeyFile(cfg.Encryption.KeyFile); !res.Passed {
		return fmt.Errorf("%w: %s", ErrMissingKey, res.Detail)
	}
	return nil
}

// RunAll executes every readiness check for the doctor report.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	for _, status := range CheckTools(ctx, cfg) {
		results = append(results, Result{Name: status.Name, Passed: status.Available(), Detail: status.Detail()})
	}
	results = append(results, CheckKeyFile(cfg.Encryption.KeyFile))
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	if cfg.History.Enabled {
		results = append(results, CheckDirectoryAccess("History directory", filepath.Dir(cfg.History.Path)))
	}
	if cfg.Mirror.Enabled {
		results = append(results, Result{Name: "Mirror", Passed: true, Detail: fmt.Sprintf("s3://%s/%s", cfg.Mirror.Bucket, cfg.Mirror.Prefix)})
	}
	return results
}
