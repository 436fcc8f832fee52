package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"hlspack/internal/classify"
	"hlspack/internal/config"
	"hlspack/internal/fileutil"
	"hlspack/internal/history"
	"hlspack/internal/ladder"
	"hlspack/internal/logging"
	"hlspack/internal/mirror"
	"hlspack/internal/notifications"
	"hlspack/internal/preflight"
	"hlspack/internal/progress"
	"hlspack/internal/publish"
	"hlspack/internal/reconcile"
	"hlspack/internal/transcode"
)

// Stage names used in logs, errors and history.
const (
	StagePreflight     = "preflight"
	StageClassify      = "classify"
	StagePlan          = "plan"
	StageEncryptedPass = "encrypted_pass"
	StageSeal          = "seal"
	StagePlainPass     = "plain_pass"
	StageMerge         = "merge"
	StagePublish       = "publish"
	StageMirror        = "mirror"
)

// Recorder journals finished jobs.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// Uploader mirrors a published directory.
type Uploader interface {
	UploadTree(ctx context.Context, root, base string) (mirror.Result, error)
}

// Notifier announces finished jobs.
type Notifier interface {
	NotifyJobCompleted(ctx context.Context, outcome notifications.JobOutcome) error
	NotifyJobFailed(ctx context.Context, outcome notifications.JobOutcome) error
}

// Dependencies wires a Pipeline. Only Config is required.
type Dependencies struct {
	Config   *config.Config
	Logger   *slog.Logger
	Prober   classify.Prober
	Runner   transcode.Runner
	FS       reconcile.FS
	Mirror   Uploader
	History  Recorder
	Notifier Notifier
	Progress progress.Sink
	Now      func() time.Time
	NewID    func() string
}

// Request names the source file and the destination directory.
type Request struct {
	Source      string
	Destination string
}

// Summary describes a finished job.
type Summary struct {
	JobID          string
	Source         string
	Destination    string
	Classification classify.Result
	Plan           ladder.Plan
	Seal           reconcile.Report
	Merge          reconcile.Report
	PublishedBytes int64
	PublishedFiles int
	Mirrored       mirror.Result
	MirrorErr      error
	StartedAt      time.Time
	FinishedAt     time.Time
}

// Pipeline converts one source per Run call.
type Pipeline struct {
	cfg          *config.Config
	logger       *slog.Logger
	prober       classify.Prober
	orchestrator *transcode.Orchestrator
	fs           reconcile.FS
	mirror       Uploader
	history      Recorder
	notifier     Notifier
	sink         progress.Sink
	now          func() time.Time
	newID        func() string
}

// New builds a Pipeline, filling production defaults for anything unset.
func New(deps Dependencies) (*Pipeline, error) {
	if deps.Config == nil {
		return nil, errors.New("pipeline: config is required")
	}
	cfg := deps.Config
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	prober := deps.Prober
	if prober == nil {
		prober = classify.FFprobe{Binary: cfg.FFprobeBinary(), Logger: logger}
	}
	fsys := deps.FS
	if fsys == nil {
		fsys = reconcile.OSFS{}
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	newID := deps.NewID
	if newID == nil {
		newID = func() string { return uuid.NewString() }
	}
	return &Pipeline{
		cfg:          cfg,
		logger:       logging.NewComponentLogger(logger, "pipeline"),
		prober:       prober,
		orchestrator: transcode.NewOrchestrator(cfg.FFmpegBinary(), transcode.OptionsFromConfig(cfg), deps.Runner, logger),
		fs:           fsys,
		mirror:       deps.Mirror,
		history:      deps.History,
		notifier:     deps.Notifier,
		sink:         deps.Progress,
		now:          now,
		newID:        newID,
	}, nil
}

// jobState carries what a run has learned so far.
type jobState struct {
	summary  Summary
	stage    string
	workDir  string
	name     string
	keyInfo  string
	reporter *progress.Reporter
}

// Run executes the whole job. The returned error carries a marker that
// ExitCode understands. The working directory is left in place on failure.
func (p *Pipeline) Run(ctx context.Context, req Request) (Summary, error) {
	st := &jobState{}
	st.summary.JobID = p.newID()
	st.summary.StartedAt = p.now()

	src := strings.TrimSpace(req.Source)
	dst := strings.TrimSpace(req.Destination)
	if src == "" || dst == "" {
		return st.summary, Wrap(ErrInternal, StagePreflight, "validate request", "source and destination are required", nil)
	}
	absDst, err := filepath.Abs(dst)
	if err != nil {
		return st.summary, Wrap(ErrInternal, StagePreflight, "resolve destination", "", err)
	}
	st.summary.Source = src
	st.summary.Destination = absDst
	st.workDir = publish.WorkingDir(absDst)
	st.name = strings.TrimSuffix(publish.ManifestName(absDst), ".m3u8")

	ctx = logging.WithJobID(ctx, st.summary.JobID)
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("job started",
		logging.String(logging.FieldEventType, "job_start"),
		logging.String("source", src),
		logging.String("destination", absDst),
	)

	if err := p.stage(ctx, st, StagePreflight, "check preconditions", func(context.Context, *slog.Logger) error {
		return preflight.CheckJob(p.cfg, absDst)
	}); err != nil {
		return st.summary, err
	}

	lock, err := publish.Acquire(p.cfg.LockDir(), absDst)
	if err != nil {
		err = Wrap(nil, StagePreflight, "lock destination", "", err)
		p.logFailure(ctx, StagePreflight, err)
		return st.summary, err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logging.WarnWithContext(logger, "release destination lock failed", "lock_release_failed",
				logging.String("lock", lock.Path()),
				logging.Error(err),
			)
		}
	}()

	runErr := p.run(ctx, st)
	st.summary.FinishedAt = p.now()
	p.record(ctx, st, runErr)
	p.notify(ctx, st, runErr)
	if runErr != nil {
		return st.summary, runErr
	}

	logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.String("class", st.summary.Classification.Class.String()),
		logging.Int("renditions", len(st.summary.Plan.Renditions)),
		logging.Int("protected_segments", st.summary.Merge.Totals().Restored),
		logging.Int("files", st.summary.PublishedFiles),
		logging.String("size", humanize.Bytes(uint64(st.summary.PublishedBytes))),
		logging.Duration("elapsed", st.summary.FinishedAt.Sub(st.summary.StartedAt)),
	)
	return st.summary, nil
}

func (p *Pipeline) run(ctx context.Context, st *jobState) error {
	if ok, err := fileutil.Exists(st.workDir); err == nil && ok {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "working directory already exists", "stale_workdir",
			logging.String("work_dir", st.workDir),
			logging.String(logging.FieldImpact, "files from the earlier run are overwritten or reconciled"),
		)
	}

	if err := p.stage(ctx, st, StageClassify, "probe source", func(ctx context.Context, logger *slog.Logger) error {
		res, err := classify.Classify(ctx, p.prober, st.summary.Source)
		if err != nil {
			return err
		}
		st.summary.Classification = res
		logger.Info("source classified",
			logging.Int("width", res.Probe.Width),
			logging.Int("height", res.Probe.Height),
			logging.Float64("duration_seconds", res.Probe.DurationSeconds),
			logging.String("class", res.Class.String()),
			logging.Float64("aspect_ratio", res.AspectRatio),
		)
		return nil
	}); err != nil {
		return err
	}

	if err := p.stage(ctx, st, StagePlan, "build ladder", func(_ context.Context, logger *slog.Logger) error {
		plan, err := ladder.Build(st.summary.Classification.Class, st.summary.Classification.AspectRatio)
		if err != nil {
			return err
		}
		st.summary.Plan = plan
		for _, r := range plan.Renditions {
			logger.Debug("rendition planned",
				logging.String(logging.FieldRendition, r.Name),
				logging.String("resolution", fmt.Sprintf("%dx%d", r.Width, r.Height)),
				logging.Int("bitrate_kbps", r.BitrateKbps),
			)
		}
		st.keyInfo = filepath.Join(p.cfg.KeyInfoDir(), st.summary.JobID+".keyinfo")
		return transcode.WriteKeyInfo(st.keyInfo, p.cfg.Encryption.KeyURI, p.cfg.Encryption.KeyFile)
	}); err != nil {
		return err
	}

	duration := st.summary.Classification.Probe.DurationSeconds
	st.reporter = progress.NewReporter(duration, p.sink)
	job := transcode.Job{
		Source:      st.summary.Source,
		WorkDir:     st.workDir,
		Name:        st.name,
		KeyInfoPath: st.keyInfo,
	}

	err := p.stage(ctx, st, StageEncryptedPass, "run ffmpeg", func(ctx context.Context, _ *slog.Logger) error {
		if err := p.orchestrator.Run(ctx, job, st.summary.Plan, transcode.PassA(duration), st.reporter); err != nil {
			return err
		}
		st.reporter.Observe(true, duration)
		return nil
	})
	p.removeKeyInfo(ctx, st.keyInfo)
	if err != nil {
		return err
	}

	if err := p.stage(ctx, st, StageSeal, "seal protected segments", func(ctx context.Context, logger *slog.Logger) error {
		rep, err := reconcile.Seal(ctx, p.fs, st.workDir, job.ManifestName(), st.summary.Plan)
		st.summary.Seal = rep
		if err != nil {
			return err
		}
		logReport(logger, rep)
		return nil
	}); err != nil {
		return err
	}

	if err := p.stage(ctx, st, StagePlainPass, "run ffmpeg", func(ctx context.Context, _ *slog.Logger) error {
		if err := p.orchestrator.Run(ctx, job, st.summary.Plan, transcode.PassB(duration), st.reporter); err != nil {
			return err
		}
		st.reporter.Observe(false, duration)
		return nil
	}); err != nil {
		return err
	}

	if err := p.stage(ctx, st, StageMerge, "merge plain segments", func(ctx context.Context, logger *slog.Logger) error {
		rep, err := reconcile.Merge(ctx, p.fs, st.workDir, job.ManifestName(), st.summary.Plan)
		st.summary.Merge = rep
		if err != nil {
			return err
		}
		logReport(logger, rep)
		return nil
	}); err != nil {
		return err
	}

	if err := p.stage(ctx, st, StagePublish, "rename working directory", func(_ context.Context, logger *slog.Logger) error {
		if err := publish.Finalize(st.workDir, st.summary.Destination); err != nil {
			return err
		}
		size, files, err := fileutil.DirSize(st.summary.Destination)
		if err != nil {
			logging.WarnWithContext(logger, "measure published package failed", "publish_size_failed", logging.Error(err))
			return nil
		}
		st.summary.PublishedBytes = size
		st.summary.PublishedFiles = files
		return nil
	}); err != nil {
		return err
	}

	p.mirrorPackage(ctx, st)
	return nil
}

// stage runs fn with stage-scoped logging and wraps its error with a marker.
func (p *Pipeline) stage(ctx context.Context, st *jobState, name, operation string, fn func(context.Context, *slog.Logger) error) error {
	st.stage = name
	stageCtx := logging.WithStage(ctx, name)
	logger := logging.WithContext(stageCtx, p.logger)
	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))
	started := p.now()

	if err := fn(stageCtx, logger); err != nil {
		wrapped := Wrap(nil, name, operation, "", err)
		p.logFailure(stageCtx, name, wrapped)
		return wrapped
	}

	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", p.now().Sub(started)),
	)
	return nil
}

func (p *Pipeline) logFailure(ctx context.Context, stage string, err error) {
	logger := logging.WithContext(logging.WithStage(ctx, stage), p.logger)
	logging.ErrorWithContext(logger, "stage failed", "stage_failure",
		logging.String(logging.FieldErrorHint, Hint(err)),
		logging.Int("exit_code", ExitCode(err)),
		logging.Error(err),
	)
}

// mirrorPackage uploads the published directory. Failures only warn.
func (p *Pipeline) mirrorPackage(ctx context.Context, st *jobState) {
	if p.mirror == nil {
		return
	}
	stageCtx := logging.WithStage(ctx, StageMirror)
	logger := logging.WithContext(stageCtx, p.logger)
	res, err := p.mirror.UploadTree(stageCtx, st.summary.Destination, filepath.Base(st.summary.Destination))
	st.summary.Mirrored = res
	if err != nil {
		st.summary.MirrorErr = err
		logging.WarnWithContext(logger, "mirror upload failed", "mirror_failed",
			logging.Int("objects_uploaded", res.Objects),
			logging.String(logging.FieldErrorHint, "check mirror credentials and bucket"),
			logging.String(logging.FieldImpact, "package is published locally only"),
			logging.Error(err),
		)
		return
	}
	logger.Info("package mirrored",
		logging.Int("objects", res.Objects),
		logging.String("size", humanize.Bytes(uint64(res.Bytes))),
	)
}

// record journals the job. Failures only warn and never change the result.
func (p *Pipeline) record(ctx context.Context, st *jobState, runErr error) {
	if p.history == nil {
		return
	}
	entry := history.Entry{
		ID:              st.summary.JobID,
		SourcePath:      st.summary.Source,
		DestinationPath: st.summary.Destination,
		Renditions:      st.summary.Plan.Dirs(),
		Status:          history.StatusSucceeded,
		SealedSegments:  st.summary.Seal.Totals().Sealed,
		MergedSegments:  st.summary.Merge.Totals().Merged,
		PublishedBytes:  st.summary.PublishedBytes,
		MirroredObjects: st.summary.Mirrored.Objects,
		StartedAt:       st.summary.StartedAt,
		FinishedAt:      st.summary.FinishedAt,
	}
	if len(st.summary.Plan.Renditions) > 0 {
		entry.QualityClass = st.summary.Classification.Class.String()
	}
	if runErr != nil {
		entry.Status = history.StatusFailed
		entry.ExitCode = ExitCode(runErr)
		entry.ErrorMessage = runErr.Error()
		entry.FailedStage = st.stage
	} else if st.summary.MirrorErr != nil {
		entry.ErrorMessage = "mirror: " + st.summary.MirrorErr.Error()
	}
	if err := p.history.Record(ctx, entry); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "record job history failed", "history_failed",
			logging.String(logging.FieldImpact, "job is missing from history"),
			logging.Error(err),
		)
	}
}

// notify sends the job outcome. Failures only warn.
func (p *Pipeline) notify(ctx context.Context, st *jobState, runErr error) {
	if p.notifier == nil {
		return
	}
	outcome := notifications.JobOutcome{
		JobID:       st.summary.JobID,
		Source:      st.summary.Source,
		Destination: st.summary.Destination,
		Renditions:  len(st.summary.Plan.Renditions),
		Bytes:       st.summary.PublishedBytes,
		Elapsed:     st.summary.FinishedAt.Sub(st.summary.StartedAt),
	}
	if len(st.summary.Plan.Renditions) > 0 {
		outcome.Class = st.summary.Classification.Class.String()
	}
	var err error
	if runErr != nil {
		outcome.ExitCode = ExitCode(runErr)
		outcome.Stage = st.stage
		outcome.Err = runErr
		err = p.notifier.NotifyJobFailed(ctx, outcome)
	} else {
		err = p.notifier.NotifyJobCompleted(ctx, outcome)
	}
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "job notification failed", "notification_failed",
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.Error(err),
		)
	}
}

func (p *Pipeline) removeKeyInfo(ctx context.Context, path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.WarnWithContext(logging.WithContext(ctx, p.logger), "remove key info file failed", "keyinfo_cleanup_failed",
			logging.String("path", path),
			logging.Error(err),
		)
	}
}

func logReport(logger *slog.Logger, rep reconcile.Report) {
	for _, rr := range rep.Renditions {
		logger.Debug("rendition reconciled",
			logging.String(logging.FieldRendition, rr.Rendition),
			logging.Int("sealed", rr.Sealed),
			logging.Int("removed", rr.Removed),
			logging.Int("merged", rr.Merged),
			logging.Int("restored", rr.Restored),
		)
	}
	total := rep.Totals()
	logger.Info("reconciliation finished",
		logging.Int("sealed", total.Sealed),
		logging.Int("removed", total.Removed),
		logging.Int("merged", total.Merged),
		logging.Int("restored", total.Restored),
	)
}
