package preflight

import (
	"context"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"hlspack/internal/config"
	"hlspack/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckKeyFile verifies the content key exists, is a regular file and is readable.
func CheckKeyFile(path string) Result {
	const name = "Key file"
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.Mode().IsRegular() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a regular file)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: unreadable: %v)", path, err)}
	}
	if info.Size() != 16 {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (warning: %d bytes, AES-128 expects 16)", path, info.Size())}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckTools probes the ffprobe and ffmpeg binaries a conversion needs.
func CheckTools(ctx context.Context, cfg *config.Config) []deps.Status {
	return deps.Check(ctx,
		deps.Tool{Name: "FFprobe", Command: cfg.FFprobeBinary()},
		deps.Tool{Name: "FFmpeg", Command: cfg.FFmpegBinary()},
	)
}
