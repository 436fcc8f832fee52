package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type probeOutput struct {
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	DurationSeconds float64 `json:"duration_seconds"`
	Class           string  `json:"class"`
	ClassOrdinal    int     `json:"class_ordinal"`
	AspectRatio     float64 `json:"aspect_ratio"`
}

func newProbeCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "probe <source>",
		Short: "Probe a source and print its classification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := probeSource(cmd, ctx, args[0])
			if err != nil {
				return err
			}
			view := probeOutput{
				Width:           res.Probe.Width,
				Height:          res.Probe.Height,
				DurationSeconds: res.Probe.DurationSeconds,
				Class:           res.Class.String(),
				ClassOrdinal:    int(res.Class),
				AspectRatio:     res.AspectRatio,
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Resolution: %dx%d\n", view.Width, view.Height)
			fmt.Fprintf(out, "Duration:   %.3fs\n", view.DurationSeconds)
			fmt.Fprintf(out, "Class:      %s (%d)\n", view.Class, view.ClassOrdinal)
			fmt.Fprintf(out, "Aspect:     %.4f\n", view.AspectRatio)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON")
	return cmd
}
