// Package reconcile merges the encrypted and plain ffmpeg passes into one
// rendition tree.
//
// Seal runs after the encrypted pass: manifests gain the .enc suffix,
// segments whose index satisfies Protected are kept as sealed copies and all
// other segments are removed. Merge runs after the plain pass: it derives the
// _unenc manifests from the fresh plain output, moves plain copies of
// protected segments to their _unenc names, restores the sealed manifests
// with key tags scoped to the protected segments, and moves sealed segments
// back to their primary names.
//
// Each stage first builds a Plan of filesystem operations from a directory
// inventory, tracking a Status per segment, and then commits the plan
// through an FS. MemFS lets the whole algorithm run without disk I/O.
package reconcile
