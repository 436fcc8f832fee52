// Package logging assembles structured slog loggers and formatting helpers used
// across hlspack.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with the job ID and stage. A fan-out handler lets the convert command
// append every record to the per-job log file named on the command line.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits records with the same shape.
package logging
