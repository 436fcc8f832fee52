package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestPretty(buf *bytes.Buffer, level slog.Level) *slog.Logger {
	lvl := new(slog.LevelVar)
	lvl.Set(level)
	return slog.New(newPrettyHandler(buf, lvl, false))
}

func TestPrettyHandlerLiftsSubjectIntoHeader(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestPretty(&buf, slog.LevelInfo)
	logger = NewComponentLogger(logger, "transcode")

	ctx := WithStage(WithJobID(context.Background(), "3f2a9c1e-aaaa-bbbb-cccc-1234567890ab"), "encrypted")
	WithContext(ctx, logger).Info("pass started", String(FieldRendition, "Hd"), Int("threads", 2))

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus two fields, got %q", out)
	}
	header := lines[0]
	for _, want := range []string{"INFO", "[transcode]", "job 3f2a9c1e (encrypted)", "– pass started"} {
		if !strings.Contains(header, want) {
			t.Fatalf("header %q missing %q", header, want)
		}
	}
	if strings.Contains(out, FieldJobID) {
		t.Fatalf("job id should not be repeated as a field: %q", out)
	}
	if strings.TrimSpace(lines[1]) != "rendition: Hd" {
		t.Fatalf("unexpected field line %q", lines[1])
	}
}

func TestPrettyHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestPretty(&buf, slog.LevelWarn)
	logger.Info("hidden")
	logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("expected no output below warn, got %q", buf.String())
	}
	logger.Warn("shown")
	if !strings.Contains(buf.String(), "WARN") {
		t.Fatalf("expected warn output, got %q", buf.String())
	}
}

func TestPrettyHandlerQuotesAndDedupes(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestPretty(&buf, slog.LevelDebug)
	logger.With("path", "first").Info("msg", "path", "/tmp/out dir")
	out := buf.String()
	if strings.Count(out, "path:") != 1 {
		t.Fatalf("expected a single path field, got %q", out)
	}
	if !strings.Contains(out, `path: "/tmp/out dir"`) {
		t.Fatalf("expected quoted later value, got %q", out)
	}
}

func TestJSONHandlerShape(t *testing.T) {
	var buf bytes.Buffer
	lvl := new(slog.LevelVar)
	logger := slog.New(newJSONHandler(&buf, lvl, false))
	logger.Info("published", String(FieldJobID, "abc"), Int64("bytes", 42))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode json line: %v (%q)", err, buf.String())
	}
	if payload["level"] != "info" {
		t.Fatalf("expected lowercase level, got %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", payload)
	}
	if payload[FieldJobID] != "abc" {
		t.Fatalf("expected job id, got %v", payload[FieldJobID])
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestTeeFileWritesBothSinks(t *testing.T) {
	var buf bytes.Buffer
	base := newTestPretty(&buf, slog.LevelInfo)
	path := filepath.Join(t.TempDir(), "logs", "job.log")

	logger, err := TeeFile(base, path, "info")
	if err != nil {
		t.Fatalf("TeeFile: %v", err)
	}
	logger.Info("hello", String("k", "v"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read job log: %v", err)
	}
	if !strings.Contains(string(data), "hello") {
		t.Fatalf("job log missing record: %q", data)
	}
	if !strings.Contains(buf.String(), "hello") {
		t.Fatalf("base logger missing record: %q", buf.String())
	}
}

func TestTeeFileEmptyPathReturnsBase(t *testing.T) {
	base := NewNop()
	logger, err := TeeFile(base, "  ", "info")
	if err != nil {
		t.Fatalf("TeeFile: %v", err)
	}
	if logger != base {
		t.Fatal("expected base logger to be returned unchanged")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestPretty(&buf, slog.LevelInfo)
	WarnWithContext(logger, "mirror skipped", "mirror_skipped", String(FieldErrorHint, "set mirror.bucket"))
	out := buf.String()
	if !strings.Contains(out, "event_type: mirror_skipped") {
		t.Fatalf("missing event type: %q", out)
	}
	if !strings.Contains(out, `error_hint: "set mirror.bucket"`) {
		t.Fatalf("explicit hint should win: %q", out)
	}
	if !strings.Contains(out, "impact:") {
		t.Fatalf("missing impact default: %q", out)
	}
}

func TestFormatValueRoundsFloatsAndDurations(t *testing.T) {
	tests := []struct {
		value slog.Value
		want  string
	}{
		{slog.Float64Value(16.0 / 9.0), "1.778"},
		{slog.Float64Value(2), "2"},
		{slog.DurationValue(1500*time.Microsecond + 3*time.Second), "3.002s"},
		{slog.StringValue("a b"), `"a b"`},
		{slog.StringValue(""), `""`},
	}
	for _, tc := range tests {
		if got := formatValue(tc.value); got != tc.want {
			t.Fatalf("formatValue(%v) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestGroupsFlattenToDottedKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := newTestPretty(&buf, slog.LevelInfo)
	logger.WithGroup("mirror").Info("uploaded", slog.Group("object", String("key", "hls/movie.m3u8")))
	if !strings.Contains(buf.String(), "mirror.object.key: hls/movie.m3u8") {
		t.Fatalf("expected dotted key, got %q", buf.String())
	}
}
