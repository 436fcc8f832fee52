// Package preflight checks the preconditions of a conversion before any
// filesystem mutation.
//
// CheckJob runs in a fixed order: destination free, ffprobe resolvable,
// ffmpeg resolvable, key file present. The first failure is returned as one
// of the package sentinels so the caller can map it to an exit code.
//
// RunAll and the individual checks back the "hlspack doctor" report.
package preflight
