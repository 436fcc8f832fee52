package reconcile

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
)

// Status is the reconciliation state of one segment artifact.
type Status int

const (
	// Pending segments are awaiting their plain-pass replacement.
	Pending Status = iota
	// ProtectedSealed segments are encrypted-pass media kept for a protected index.
	ProtectedSealed
	// PlainMerged segments are plain-pass media in their final place.
	PlainMerged
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "pending"
	case ProtectedSealed:
		return "protected_sealed"
	case PlainMerged:
		return "plain_merged"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// OpKind is the kind of a planned filesystem operation.
type OpKind int

const (
	OpRename OpKind = iota
	OpRemove
	OpWrite
)

func (k OpKind) String() string {
	switch k {
	case OpRename:
		return "rename"
	case OpRemove:
		return "remove"
	case OpWrite:
		return "write"
	default:
		return fmt.Sprintf("op(%d)", int(k))
	}
}

// Op is one filesystem operation. Path is the source for renames and the
// target for removes and writes.
type Op struct {
	Kind OpKind
	Path string
	To   string
	Data []byte
}

func (o Op) String() string {
	switch o.Kind {
	case OpRename:
		return fmt.Sprintf("rename %s -> %s", o.Path, o.To)
	case OpWrite:
		return fmt.Sprintf("write %s (%d bytes)", o.Path, len(o.Data))
	default:
		return fmt.Sprintf("%s %s", o.Kind, o.Path)
	}
}

// SegmentState tracks one segment artifact through a stage.
type SegmentState struct {
	Rendition string
	Index     int
	Name      string
	Status    Status
}

// Plan is the ordered set of operations of one stage and the segment
// states they produce. Operations are committed in order.
type Plan struct {
	Stage    string
	Ops      []Op
	Segments []SegmentState
	Report   Report
}

func (p *Plan) rename(from, to string) {
	p.Ops = append(p.Ops, Op{Kind: OpRename, Path: from, To: to})
}

func (p *Plan) remove(path string) {
	p.Ops = append(p.Ops, Op{Kind: OpRemove, Path: path})
}

func (p *Plan) write(path string, data []byte) {
	p.Ops = append(p.Ops, Op{Kind: OpWrite, Path: path, Data: data})
}

func (p *Plan) track(rendition string, index int, name string, status Status) {
	p.Segments = append(p.Segments, SegmentState{Rendition: rendition, Index: index, Name: name, Status: status})
}

// StatusOf returns the tracked states of a rendition index, in plan order.
func (p Plan) StatusOf(rendition string, index int) []Status {
	var out []Status
	for _, s := range p.Segments {
		if s.Rendition == rendition && s.Index == index {
			out = append(out, s.Status)
		}
	}
	return out
}

// Commit applies the plan's operations through fsys. The first failure
// aborts the commit and is returned with the failing operation.
func Commit(ctx context.Context, fsys FS, plan Plan) error {
	for i, op := range plan.Ops {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: interrupted before op %d: %w", plan.Stage, i, err)
		}
		var err error
		switch op.Kind {
		case OpRename:
			err = fsys.Rename(op.Path, op.To)
		case OpRemove:
			err = fsys.Remove(op.Path)
		case OpWrite:
			err = fsys.WriteFile(op.Path, op.Data)
		default:
			err = fmt.Errorf("unknown op kind %d", int(op.Kind))
		}
		if err != nil {
			return fmt.Errorf("%s: %s: %w", plan.Stage, op, err)
		}
	}
	return nil
}

// RenditionReport counts what a stage did in one rendition directory.
type RenditionReport struct {
	Rendition string
	Sealed    int
	Removed   int
	Merged    int
	Restored  int
	Plain     int
	Ignored   int
}

// Report summarises a stage.
type Report struct {
	Stage      string
	Renditions []RenditionReport
}

// Totals sums the per-rendition counts.
func (r Report) Totals() RenditionReport {
	total := RenditionReport{Rendition: "total"}
	for _, rr := range r.Renditions {
		total.Sealed += rr.Sealed
		total.Removed += rr.Removed
		total.Merged += rr.Merged
		total.Restored += rr.Restored
		total.Plain += rr.Plain
		total.Ignored += rr.Ignored
	}
	return total
}

type inventoryEntry struct {
	name    string
	segment Segment
	isSeg   bool
}

func inventory(fsys FS, dir string) ([]inventoryEntry, error) {
	names, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	slices.Sort(names)
	out := make([]inventoryEntry, 0, len(names))
	for _, name := range names {
		seg, ok := ParseSegment(name)
		out = append(out, inventoryEntry{name: name, segment: seg, isSeg: ok})
	}
	return out, nil
}

func hasFile(entries []inventoryEntry, name string) bool {
	for _, e := range entries {
		if e.name == name {
			return true
		}
	}
	return false
}

func join(parts ...string) string {
	return filepath.Join(parts...)
}
