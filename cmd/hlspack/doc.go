// Package main hosts the hlspack CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration and logging once, then hands
// off to the internal packages: convert runs the full pipeline, while plan,
// probe, doctor and history expose its individual pieces for inspection.
package main
