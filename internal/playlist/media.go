package playlist

import (
	"path"
	"slices"
	"strings"
)

const (
	keyTagPrefix = "#EXT-X-KEY:"
	keyNone      = "#EXT-X-KEY:METHOD=NONE"
)

// IsURI reports whether a playlist line is a URI line rather than a tag,
// comment or blank line.
func IsURI(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed != "" && !strings.HasPrefix(trimmed, "#")
}

// URIs returns every URI line of a playlist in order.
func URIs(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if IsURI(line) {
			out = append(out, strings.TrimSpace(line))
		}
	}
	return out
}

// RewriteURIs passes the base name of every URI line to rename and replaces
// it with the result. Directory components of the URI are preserved. Tags
// and blank lines are copied unchanged.
func RewriteURIs(text string, rename func(base string) string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !IsURI(line) {
			continue
		}
		uri := strings.TrimSpace(line)
		dir, base := path.Split(uri)
		lines[i] = dir + rename(base)
	}
	return strings.Join(lines, "\n")
}

// ScopeKeys rewrites a media playlist so that only segments for which
// encrypted returns true are covered by an AES key tag. Each encrypted
// segment keeps the key tag that was in effect for it in the source, so
// per-segment IVs survive. Plain runs are preceded by
// "#EXT-X-KEY:METHOD=NONE". A playlist without a key tag is returned
// unchanged.
func ScopeKeys(text string, encrypted func(base string) bool) string {
	lines := strings.Split(text, "\n")
	if !slices.ContainsFunc(lines, isKeyTag) {
		return text
	}

	out := make([]string, 0, len(lines)+8)
	pending := make([]string, 0, 4)
	active := ""  // source key tag in effect for the next segment
	current := "" // key state already emitted; "" means unencrypted
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, keyTagPrefix) {
			active = trimmed
			if trimmed == keyNone {
				active = ""
			}
			continue
		}
		if !IsURI(line) {
			pending = append(pending, line)
			continue
		}

		want := keyNone
		if active != "" && encrypted(path.Base(trimmed)) {
			want = active
		}
		if want != current && !(current == "" && want == keyNone) {
			pending = insertBeforeSegment(pending, want)
		}
		current = want
		out = append(out, pending...)
		out = append(out, line)
		pending = pending[:0]
	}
	out = append(out, pending...)
	return strings.Join(out, "\n")
}

func isKeyTag(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, keyTagPrefix) && trimmed != keyNone
}

// insertBeforeSegment places tag ahead of the segment's EXTINF line, or at
// the end of the block when the block has none.
func insertBeforeSegment(block []string, tag string) []string {
	at := len(block)
	for i, line := range block {
		if strings.HasPrefix(strings.TrimSpace(line), "#EXTINF") {
			at = i
			break
		}
	}
	block = append(block, "")
	copy(block[at+1:], block[at:])
	block[at] = tag
	return block
}
