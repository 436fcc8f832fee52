package deps

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrNotConfigured reports an empty tool command.
var ErrNotConfigured = errors.New("command not configured")

const versionTimeout = 5 * time.Second

// Tool is an external executable hlspack shells out to.
type Tool struct {
	Name    string
	Command string
}

// Status is the outcome of probing a Tool.
type Status struct {
	Tool
	Path    string
	Version string
	Err     error
}

// Available reports whether the tool resolved on PATH.
func (s Status) Available() bool { return s.Err == nil }

// Detail is the one-line doctor description of the status.
func (s Status) Detail() string {
	switch {
	case s.Err != nil:
		return s.Err.Error()
	case s.Version != "":
		return s.Version
	default:
		return s.Path
	}
}

// Check resolves every tool and, for the ones found, reads its version.
func Check(ctx context.Context, tools ...Tool) []Status {
	out := make([]Status, 0, len(tools))
	for _, t := range tools {
		st := Status{Tool: t}
		st.Path, st.Err = Resolve(t.Command)
		if st.Err == nil {
			st.Version = ToolVersion(ctx, st.Path)
		}
		out = append(out, st)
	}
	return out
}

// Resolve returns the absolute path of command, or an error when it cannot
// be found on PATH.
func Resolve(command string) (string, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return "", ErrNotConfigured
	}
	path, err := exec.LookPath(command)
	if err != nil {
		return "", fmt.Errorf("binary %q not found: %w", command, err)
	}
	return path, nil
}

// ToolVersion runs "<binary> -version" and returns the first output line
// without the copyright notice, e.g. "ffmpeg version 6.1.1". It returns ""
// when the version cannot be read.
func ToolVersion(ctx context.Context, binary string) string {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return ""
	}
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, binary, "-version").Output()
	if err != nil {
		return ""
	}
	first, _, _ := strings.Cut(string(out), "\n")
	first, _, _ = strings.Cut(first, " Copyright")
	return strings.TrimSpace(first)
}
