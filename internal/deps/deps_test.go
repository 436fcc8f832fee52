package deps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCheck(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "ffprobe")
	script := []byte("#!/bin/sh\necho 'ffprobe version 7.0 Copyright (c) the FFmpeg developers'\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	results := Check(context.Background(),
		Tool{Name: "FFprobe", Command: present},
		Tool{Name: "FFmpeg", Command: "clearly-not-present-binary"},
		Tool{Name: "Unset", Command: "  "},
	)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !results[0].Available() || results[0].Path != present || results[0].Detail() != "ffprobe version 7.0" {
		t.Fatalf("unexpected status for present tool: %#v", results[0])
	}
	if results[1].Available() || !strings.Contains(results[1].Detail(), "clearly-not-present-binary") {
		t.Fatalf("unexpected status for missing tool: %#v", results[1])
	}
	if !errors.Is(results[2].Err, ErrNotConfigured) {
		t.Fatalf("unexpected status for unset command: %#v", results[2])
	}
}

func TestResolve(t *testing.T) {
	binDir := t.TempDir()
	stub := filepath.Join(binDir, "ffprobe")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", binDir)

	got, err := Resolve("ffprobe")
	if err != nil || got != stub {
		t.Fatalf("Resolve = %q, %v", got, err)
	}
	if _, err := Resolve("ffmpeg"); err == nil {
		t.Fatal("expected error for missing binary")
	}
}

func TestToolVersion(t *testing.T) {
	binDir := t.TempDir()
	stub := filepath.Join(binDir, "ffmpeg")
	body := "#!/bin/sh\necho 'ffmpeg version 6.1.1 Copyright (c) 2000-2023 the FFmpeg developers'\necho 'built with gcc'\n"
	if err := os.WriteFile(stub, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	if got := ToolVersion(context.Background(), stub); got != "ffmpeg version 6.1.1" {
		t.Fatalf("unexpected version %q", got)
	}
	if got := ToolVersion(context.Background(), filepath.Join(binDir, "missing")); got != "" {
		t.Fatalf("expected empty version, got %q", got)
	}
}
