package fileutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "master.m3u8")

	if err := WriteFileAtomic(path, []byte("first"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(path, []byte("second"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Fatalf("content mismatch: got %q", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, found %d entries", len(entries))
	}
}

func TestWriteFileAtomicMissingDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "file.txt")
	if err := WriteFileAtomic(path, []byte("x"), 0o644); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestDirSize(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "videoHlsLd"), 0o755); err != nil {
		t.Fatal(err)
	}
	files := map[string]string{
		"out.m3u8":                  "12345",
		"videoHlsLd/video.m3u8":     "abc",
		"videoHlsLd/video-00001.ts": "0123456789",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	size, count, err := DirSize(dir)
	if err != nil {
		t.Fatal(err)
	}
	if size != 18 || count != 3 {
		t.Fatalf("got size=%d count=%d", size, count)
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	ok, err := Exists(dir)
	if err != nil || !ok {
		t.Fatalf("expected dir to exist: %v %v", ok, err)
	}
	ok, err = Exists(filepath.Join(dir, "nope"))
	if err != nil || ok {
		t.Fatalf("expected missing path: %v %v", ok, err)
	}
}
