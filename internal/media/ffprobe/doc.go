// Package ffprobe runs ffprobe against a source file and decodes the narrow
// JSON document hlspack asks for: the first video stream's dimensions and the
// container duration.
//
// Key types:
//   - Result: parsed document plus the diagnostic stream ffprobe wrote
//   - Stream: width/height of a selected stream
//   - Format: container duration
//
// Entry points:
//   - Inspect: executes ffprobe and parses stdout
//   - Parse: decodes an already captured document
package ffprobe
