package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"hlspack/internal/fileutil"
	"hlspack/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent conversions",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if limit <= 0 {
				return errors.New("--limit must be positive")
			}
			out := cmd.OutOrStdout()
			exists, err := fileutil.Exists(cfg.History.Path)
			if err != nil {
				return err
			}
			if !exists {
				fmt.Fprintln(out, "No jobs recorded")
				return nil
			}

			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "No jobs recorded")
				return nil
			}
			fmt.Fprintln(out, renderHistoryTable(entries))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of jobs to show")
	return cmd
}

func renderHistoryTable(entries []history.Entry) string {
	cols := []column{
		{title: "Finished"},
		{title: "Job"},
		{title: "Status"},
		{title: "Exit", numeric: true},
		{title: "Class"},
		{title: "Destination"},
		{title: "Size", numeric: true},
		{title: "Took", numeric: true},
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		id := e.ID
		if len(id) > 8 {
			id = id[:8]
		}
		status := string(e.Status)
		if e.Status == history.StatusFailed && e.FailedStage != "" {
			status += " (" + e.FailedStage + ")"
		}
		size := "-"
		if e.PublishedBytes > 0 {
			size = humanize.Bytes(uint64(e.PublishedBytes))
		}
		rows = append(rows, []string{
			humanize.Time(e.FinishedAt),
			id,
			status,
			strconv.Itoa(e.ExitCode),
			e.QualityClass,
			filepath.Base(e.DestinationPath),
			size,
			e.Duration().Round(time.Second).String(),
		})
	}
	return renderTable(cols, rows, nil)
}
