package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"hlspack/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The key file exists, history is disabled and hardware acceleration is off
// unless options say otherwise.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Encryption.KeyFile = filepath.Join(base, "keys", "enc.key")
	cfgVal.Encode.HWAccel = ""
	cfgVal.History.Enabled = false
	cfgVal.History.Path = filepath.Join(base, "state", "history.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	WriteFile(t, cfgVal.Encryption.KeyFile, 16)

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithoutKeyFile removes the generated key file.
func WithoutKeyFile() ConfigOption {
	return func(b *configBuilder) {
		if err := os.Remove(b.cfg.Encryption.KeyFile); err != nil {
			b.t.Fatalf("remove key file: %v", err)
		}
	}
}

// WithHistory enables the sqlite job history.
func WithHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = true
	}
}

// WithBinaries points the tool settings at the given ffprobe and ffmpeg.
func WithBinaries(ffprobe, ffmpeg string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Tools.FFprobe = ffprobe
		b.cfg.Tools.FFmpeg = ffmpeg
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffprobe and ffmpeg are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffprobe", "ffmpeg"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}
		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
