package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"hlspack/internal/fileutil"
	"hlspack/internal/ladder"
	"hlspack/internal/logging"
	"hlspack/internal/progress"
)

// ErrTranscode marks a failed ffmpeg pass.
var ErrTranscode = errors.New("transcode failed")

// Failure reports a pass that ffmpeg did not complete.
type Failure struct {
	Pass     string
	ExitCode int
	Err      error
}

func (f *Failure) Error() string {
	if f.ExitCode >= 0 {
		return fmt.Sprintf("%s pass: ffmpeg exited with status %d: %v", f.Pass, f.ExitCode, f.Err)
	}
	return fmt.Sprintf("%s pass: %v", f.Pass, f.Err)
}

func (f *Failure) Unwrap() []error { return []error{ErrTranscode, f.Err} }

// Job carries the per-conversion inputs of a pass.
type Job struct {
	Source      string
	WorkDir     string
	Name        string
	KeyInfoPath string
}

// ManifestName is the top-level playlist file name for the job.
func (j Job) ManifestName() string {
	return j.Name + ".m3u8"
}

// Orchestrator runs ffmpeg passes.
type Orchestrator struct {
	binary  string
	options Options
	runner  Runner
	logger  *slog.Logger
}

// NewOrchestrator builds an orchestrator. A nil runner uses ExecRunner.
func NewOrchestrator(binary string, options Options, runner Runner, logger *slog.Logger) *Orchestrator {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Orchestrator{
		binary:  binary,
		options: options,
		runner:  runner,
		logger:  logging.NewComponentLogger(logger, "transcode"),
	}
}

// Run executes one pass over every rendition of plan.
func (o *Orchestrator) Run(ctx context.Context, job Job, plan ladder.Plan, pass Pass, reporter *progress.Reporter) error {
	if len(plan.Renditions) == 0 {
		return errors.New("transcode: plan has no renditions")
	}
	if pass.Encrypted && strings.TrimSpace(job.KeyInfoPath) == "" {
		return errors.New("transcode: encrypted pass requires a key info file")
	}
	if err := Prepare(job.WorkDir, plan); err != nil {
		return err
	}
	manifest := filepath.Join(job.WorkDir, job.ManifestName())
	if err := fileutil.WriteFileAtomic(manifest, []byte(plan.Manifest()), 0o644); err != nil {
		return fmt.Errorf("write master playlist: %w", err)
	}

	logger := logging.WithContext(ctx, o.logger).With(logging.String(logging.FieldPass, pass.Label()))
	args := BuildArgs(job.Source, job.WorkDir, plan, pass, o.options, job.KeyInfoPath)
	logger.Info("ffmpeg pass started",
		logging.Int("renditions", len(plan.Renditions)),
		logging.String("binary", o.binary),
	)
	logger.Debug("ffmpeg arguments", logging.String("args", strings.Join(args, " ")))

	err := o.runner.Run(ctx, o.binary, args, func(line string) {
		logger.Debug("ffmpeg", logging.String("line", line))
		reporter.Line(pass.Encrypted, line)
	})
	if err != nil {
		return &Failure{Pass: pass.Label(), ExitCode: exitCode(err), Err: err}
	}
	logger.Info("ffmpeg pass completed")
	return nil
}

// Prepare creates the working directory and every rendition directory.
func Prepare(workDir string, plan ladder.Plan) error {
	if strings.TrimSpace(workDir) == "" {
		return errors.New("transcode: working directory is empty")
	}
	for _, dir := range plan.Dirs() {
		if err := os.MkdirAll(filepath.Join(workDir, dir), 0o755); err != nil {
			return fmt.Errorf("create rendition directory %s: %w", dir, err)
		}
	}
	return nil
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
