package logging

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// prettyHandler renders one header line per record followed by indented
// key/value fields. The component, job and stage attributes are lifted into
// the header.
type prettyHandler struct {
	mu        *sync.Mutex
	writer    io.Writer
	level     *slog.LevelVar
	attrs     []slog.Attr
	groups    []string
	addSource bool
}

func newPrettyHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &prettyHandler{mu: &sync.Mutex{}, writer: w, level: lvl, addSource: addSource}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level.Level() {
		return nil
	}

	fields := make([]kv, 0, record.NumAttrs()+len(h.attrs))
	flattenAttrs(&fields, h.groups, h.attrs)
	record.Attrs(func(attr slog.Attr) bool {
		flattenAttr(&fields, h.groups, attr)
		return true
	})
	head, fields := liftHeader(fields)

	var buf bytes.Buffer
	buf.Grow(128 + len(fields)*32)
	h.writeHeader(&buf, record, head)
	for _, f := range fields {
		buf.WriteString("    ")
		buf.WriteString(f.key)
		buf.WriteString(": ")
		buf.WriteString(formatValue(f.value))
		buf.WriteByte('\n')
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.writer.Write(buf.Bytes())
	return err
}

// header holds the attributes rendered on the first line instead of as fields.
type header struct {
	component, jobID, stage string
}

// liftHeader removes component, job and stage from fields. The first value
// of each wins; remaining fields are deduplicated with the last value winning.
func liftHeader(fields []kv) (header, []kv) {
	var head header
	rest := fields[:0:0]
	for _, f := range fields {
		var slot *string
		switch f.key {
		case FieldComponent:
			slot = &head.component
		case FieldJobID:
			slot = &head.jobID
		case FieldStage:
			slot = &head.stage
		default:
			rest = append(rest, f)
			continue
		}
		if *slot == "" {
			*slot = attrString(f.value)
		}
	}
	return head, dedupeKVsByKey(rest)
}

// writeHeader renders "ts LEVEL [component] job <id> (stage) – message".
func (h *prettyHandler) writeHeader(buf *bytes.Buffer, record slog.Record, head header) {
	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	message := strings.TrimSpace(record.Message)
	if message == "" {
		message = "(no message)"
	}

	buf.WriteString(formatTimestamp(ts))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(record.Level))
	if head.component != "" {
		fmt.Fprintf(buf, " [%s]", head.component)
	}
	if subject := formatSubject(head.jobID, head.stage); subject != "" {
		buf.WriteByte(' ')
		buf.WriteString(subject)
	}
	buf.WriteString(" – ")
	buf.WriteString(message)
	if h.addSource {
		if src := record.Source(); src != nil {
			fmt.Fprintf(buf, " [%s:%d]", filepath.Base(src.File), src.Line)
		}
	}
	buf.WriteByte('\n')
}

// formatSubject builds the "job abc123 (stage)" header fragment. Job IDs are
// shortened to their first block.
func formatSubject(jobID, stage string) string {
	jobID = strings.TrimSpace(jobID)
	stage = strings.TrimSpace(stage)
	if short, _, ok := strings.Cut(jobID, "-"); ok {
		jobID = short
	}
	switch {
	case jobID != "" && stage != "":
		return "job " + jobID + " (" + stage + ")"
	case jobID != "":
		return "job " + jobID
	default:
		return stage
	}
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(slices.Clip(h.attrs), attrs...)
	return &clone
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.groups = append(slices.Clip(h.groups), name)
	return &clone
}

type kv struct {
	key   string
	value slog.Value
}

// dedupeKVsByKey keeps the first position of each key and its last value.
func dedupeKVsByKey(fields []kv) []kv {
	seen := make(map[string]int, len(fields))
	out := make([]kv, 0, len(fields))
	for _, f := range fields {
		switch pos, ok := seen[f.key]; {
		case f.key == "":
		case ok:
			out[pos].value = f.value
		default:
			seen[f.key] = len(out)
			out = append(out, f)
		}
	}
	return out
}

func flattenAttrs(dst *[]kv, prefix []string, attrs []slog.Attr) {
	for _, attr := range attrs {
		flattenAttr(dst, prefix, attr)
	}
}

// flattenAttr expands groups into dotted keys.
func flattenAttr(dst *[]kv, prefix []string, attr slog.Attr) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	value := attr.Value.Resolve()
	path := prefix
	if attr.Key != "" {
		path = append(slices.Clip(prefix), attr.Key)
	}
	if value.Kind() == slog.KindGroup {
		flattenAttrs(dst, path, value.Group())
		return
	}
	*dst = append(*dst, kv{key: strings.Join(path, "."), value: value})
}
