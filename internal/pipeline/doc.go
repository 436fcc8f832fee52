// Package pipeline runs one conversion end to end: preflight, classify,
// plan, the encrypted and plain ffmpeg passes with their reconciliation
// stages, publish, and the optional mirror upload and history record.
//
// Failures carry one of the exported markers so ExitCode can map them to
// the process exit status.
package pipeline
