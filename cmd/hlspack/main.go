package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"hlspack/internal/pipeline"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(exitCodeFor(err))
	}
}

// jobError marks an error returned by a conversion so main can exit with
// the job's own status code.
type jobError struct {
	err error
}

func (e *jobError) Error() string { return e.err.Error() }

func (e *jobError) Unwrap() error { return e.err }

// exitUsage is sysexits EX_USAGE; it stays clear of the 1-8 job codes.
const exitUsage = 64

func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var job *jobError
	if errors.As(err, &job) {
		return pipeline.ExitCode(job.err)
	}
	return exitUsage
}
