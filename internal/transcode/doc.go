// Package transcode drives the two ffmpeg passes of a conversion.
//
// BuildArgs turns a ladder plan and a pass descriptor into one ffmpeg
// invocation producing every rendition. The encrypted pass references a
// key-info file written by WriteKeyInfo. Orchestrator prepares the working
// tree, writes the master playlist, runs ffmpeg through a Runner and feeds
// its stats lines to a progress reporter. A non-zero exit surfaces as a
// *Failure carrying the exit code.
package transcode
