package transcode

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// Runner executes an external tool and forwards each output line.
type Runner interface {
	Run(ctx context.Context, binary string, args []string, onLine func(string)) error
}

// ExecRunner runs the tool as a child process, scanning stdout and stderr.
type ExecRunner struct{}

// Run starts binary and blocks until it exits. The returned error wraps
// *exec.ExitError for non-zero exits.
func (ExecRunner) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		scanner.Split(scanLines)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" || onLine == nil {
				continue
			}
			onLine(line)
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
			_, _ = io.Copy(io.Discard, r)
		}
	}

	wg.Add(2)
	go scan(stdout)
	go scan(stderr)

	wg.Wait()
	waitErr := cmd.Wait()
	if waitErr != nil {
		return fmt.Errorf("wait command: %w", waitErr)
	}
	if scanErr != nil {
		return fmt.Errorf("scan output: %w", scanErr)
	}
	return nil
}

// scanLines splits on '\n' or '\r' so ffmpeg's in-place stats updates
// arrive as separate lines.
func scanLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
