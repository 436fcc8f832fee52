package main

import (
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"hlspack/internal/config"
	"hlspack/internal/history"
	"hlspack/internal/logging"
	"hlspack/internal/mirror"
	"hlspack/internal/notifications"
	"hlspack/internal/pipeline"
	"hlspack/internal/progress"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "convert <source> <destination> [log-file]",
		Short: "Convert a video into a sparsely encrypted HLS package",
		Long: "Convert probes the source, encodes every rendition twice (encrypted, then plain),\n" +
			"keeps every segment whose index ends in 7 encrypted, and publishes the package\n" +
			"by renaming the working directory to <destination>. The exit status reports the\n" +
			"failure class: 1 destination exists, 2 ffmpeg failed, 3 probe unparsable,\n" +
			"4 no video stream, 5 ffprobe missing, 6 ffmpeg missing, 7 key file missing,\n" +
			"8 internal error.",
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logFile := ""
			if len(args) == 3 {
				logFile = args[2]
			}
			logger, err := ctx.logger(logFile)
			if err != nil {
				return err
			}

			deps := pipeline.Dependencies{
				Config:   cfg,
				Logger:   logger,
				Notifier: notifications.NewService(cfg),
			}
			if !noProgress {
				deps.Progress = progress.Multi(progress.NewLogSink(logger), progress.NewTerminalSink())
			} else {
				deps.Progress = progress.NewLogSink(logger)
			}
			if up := openMirror(cfg, logger); up != nil {
				deps.Mirror = up
			}
			store := openHistory(cfg, logger)
			if store != nil {
				defer store.Close()
				deps.History = store
			}

			p, err := pipeline.New(deps)
			if err != nil {
				return err
			}
			summary, err := p.Run(cmd.Context(), pipeline.Request{Source: args[0], Destination: args[1]})
			if err != nil {
				return &jobError{err: err}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Published %s\n", summary.Destination)
			fmt.Fprintf(out, "  class %s, %d renditions, %d files, %s\n",
				summary.Classification.Class,
				len(summary.Plan.Renditions),
				summary.PublishedFiles,
				humanize.Bytes(uint64(summary.PublishedBytes)),
			)
			if summary.Mirrored.Objects > 0 {
				fmt.Fprintf(out, "  mirrored %d objects to s3://%s\n", summary.Mirrored.Objects, cfg.Mirror.Bucket)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the terminal progress bar")
	return cmd
}

func openMirror(cfg *config.Config, logger *slog.Logger) *mirror.Mirror {
	if !cfg.Mirror.Enabled {
		return nil
	}
	m, err := mirror.New(cfg.Mirror, logger)
	if err != nil {
		logging.WarnWithContext(logger, "mirror disabled", "mirror_unavailable",
			logging.String(logging.FieldImpact, "package will not be uploaded"),
			logging.Error(err),
		)
		return nil
	}
	return m
}

func openHistory(cfg *config.Config, logger *slog.Logger) *history.Store {
	if !cfg.History.Enabled {
		return nil
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		logging.WarnWithContext(logger, "job history unavailable", "history_unavailable",
			logging.String(logging.FieldImpact, "job will not be journaled"),
			logging.Error(err),
		)
		return nil
	}
	return store
}
