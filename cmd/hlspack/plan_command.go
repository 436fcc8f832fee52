package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"hlspack/internal/classify"
	"hlspack/internal/ladder"
	"hlspack/internal/logging"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var showManifest bool

	cmd := &cobra.Command{
		Use:   "plan <source>",
		Short: "Show the rendition ladder a source would get",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := probeSource(cmd, ctx, args[0])
			if err != nil {
				return err
			}
			plan, err := ladder.Build(res.Class, res.AspectRatio)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Source: %dx%d, %.3fs, class %s, aspect %.4f\n",
				res.Probe.Width, res.Probe.Height, res.Probe.DurationSeconds, res.Class, res.AspectRatio)
			fmt.Fprintln(out, renderPlanTable(plan))
			if showManifest {
				fmt.Fprint(out, plan.Manifest())
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showManifest, "manifest", false, "Print the master playlist as well")
	return cmd
}

func renderPlanTable(plan ladder.Plan) string {
	printer := message.NewPrinter(language.English)
	cols := []column{
		{title: "Rendition"},
		{title: "Directory"},
		{title: "Scale", numeric: true},
		{title: "Video", numeric: true},
		{title: "Buffer", numeric: true},
		{title: "Bandwidth", numeric: true},
	}
	rows := make([][]string, 0, len(plan.Renditions))
	total := 0
	for _, r := range plan.Renditions {
		total += r.Bandwidth
		rows = append(rows, []string{
			r.Name,
			r.Dir,
			fmt.Sprintf("%dx%d", r.Width, r.Height),
			strconv.Itoa(r.BitrateKbps) + "k",
			strconv.Itoa(r.BufferKbps) + "k",
			printer.Sprintf("%d", r.Bandwidth),
		})
	}
	footer := []string{fmt.Sprintf("%d renditions", len(plan.Renditions)), "", "", "", "", printer.Sprintf("%d", total)}
	return renderTable(cols, rows, footer)
}

func probeSource(cmd *cobra.Command, ctx *commandContext, source string) (classify.Result, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return classify.Result{}, err
	}
	// Diagnostics go to stderr so stdout stays machine-readable.
	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return classify.Result{}, err
	}
	prober := classify.FFprobe{Binary: cfg.FFprobeBinary(), Logger: logger}
	return classify.Classify(cmd.Context(), prober, source)
}
