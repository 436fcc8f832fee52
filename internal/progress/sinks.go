package progress

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"hlspack/internal/logging"
)

// LogSink writes sampled progress updates to a logger.
type LogSink struct {
	logger  *slog.Logger
	sampler *sampler
}

// NewLogSink logs at info level whenever the combined percentage crosses a
// 10% bucket or the pass changes.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LogSink{logger: logger, sampler: newSampler(10)}
}

func (s *LogSink) Progress(u Update) {
	if !s.sampler.due(u) {
		return
	}
	s.logger.Info("transcode progress",
		logging.String(logging.FieldPass, u.Pass),
		logging.Int(logging.FieldProgressPercent, u.Percent),
		logging.Float64("elapsed_seconds", u.Elapsed),
	)
}

// TerminalSink redraws a single progress bar in place.
type TerminalSink struct {
	mu   sync.Mutex
	bar  *progressbar.ProgressBar
	pass string
}

// NewTerminalSink returns a sink drawing to stdout, or nil when stdout is
// not a terminal.
func NewTerminalSink() Sink {
	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return nil
	}
	return newTerminalSink(os.Stdout)
}

func newTerminalSink(out io.Writer) *TerminalSink {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(out) }),
	)
	return &TerminalSink{bar: bar}
}

func (s *TerminalSink) Progress(u Update) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.Pass != s.pass {
		s.pass = u.Pass
		s.bar.Describe(u.Pass)
	}
	_ = s.bar.Set(u.Percent)
}
