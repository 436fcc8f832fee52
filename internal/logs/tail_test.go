package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"hlspack/internal/logs"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hlspack.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func appendLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("append log: %v", err)
	}
}

func TestLastReturnsFinalLines(t *testing.T) {
	path := writeLog(t, "a\nb\nc\n")

	lines, offset, err := logs.Last(path, 2, nil)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if !slices.Equal(lines, []string{"b", "c"}) {
		t.Fatalf("unexpected lines: %#v", lines)
	}
	if offset != 6 {
		t.Fatalf("expected offset 6, got %d", offset)
	}

	lines, _, err = logs.Last(path, 10, nil)
	if err != nil || !slices.Equal(lines, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected short file result %#v (%v)", lines, err)
	}
}

func TestLastMissingFile(t *testing.T) {
	lines, offset, err := logs.Last(filepath.Join(t.TempDir(), "absent.log"), 5, nil)
	if err != nil || lines != nil || offset != 0 {
		t.Fatalf("expected empty result, got %#v %d %v", lines, offset, err)
	}
}

func TestSinceLeavesPartialLine(t *testing.T) {
	path := writeLog(t, "one\ntw")
	lines, offset, err := logs.Since(path, 0, nil)
	if err != nil {
		t.Fatalf("Since: %v", err)
	}
	if !slices.Equal(lines, []string{"one"}) || offset != 4 {
		t.Fatalf("unexpected result %#v %d", lines, offset)
	}

	appendLog(t, path, "o\n")
	lines, offset, err = logs.Since(path, offset, nil)
	if err != nil || !slices.Equal(lines, []string{"two"}) || offset != 8 {
		t.Fatalf("unexpected result after append %#v %d %v", lines, offset, err)
	}
}

func TestSinceRestartsAfterTruncation(t *testing.T) {
	path := writeLog(t, "x\n")
	lines, _, err := logs.Since(path, 100, nil)
	if err != nil || !slices.Equal(lines, []string{"x"}) {
		t.Fatalf("expected restart from 0, got %#v (%v)", lines, err)
	}
}

func TestFollowEmitsAppendedLines(t *testing.T) {
	path := writeLog(t, "start\n")
	_, offset, err := logs.Last(path, 1, nil)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, offset, 20*time.Millisecond, nil, func(line string) {
			mu.Lock()
			got = append(got, line)
			mu.Unlock()
		})
	}()

	appendLog(t, path, "later\n")
	deadline := time.Now().Add(5 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Follow: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if !slices.Equal(got, []string{"later"}) {
		t.Fatalf("unexpected followed lines %#v", got)
	}
}
