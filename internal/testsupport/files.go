package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hlspack/internal/ladder"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(strings.Repeat("B", int(size))), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// FileWriter is the part of a filesystem the pass helpers need.
type FileWriter interface {
	WriteFile(path string, data []byte) error
}

// KeyTag is the key line ffmpeg writes ahead of segment index when the key
// info file carries no IV: the IV is the segment's media sequence number.
func KeyTag(index int) string {
	return fmt.Sprintf(`#EXT-X-KEY:METHOD=AES-128,URI="enc.key",IV=0x%032x`, index)
}

// MediaPlaylist renders an ffmpeg-style VOD playlist for count segments
// starting at first. Encrypted playlists get one key tag per segment.
func MediaPlaylist(first, count int, encrypted bool) string {
	var b strings.Builder
	b.WriteString("#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-TARGETDURATION:6\n")
	fmt.Fprintf(&b, "#EXT-X-MEDIA-SEQUENCE:%d\n", first)
	b.WriteString("#EXT-X-PLAYLIST-TYPE:VOD\n")
	for i := first; i < first+count; i++ {
		if encrypted {
			b.WriteString(KeyTag(i) + "\n")
		}
		fmt.Fprintf(&b, "#EXTINF:6.000000,\nvideo-%05d.ts\n", i)
	}
	b.WriteString("#EXT-X-ENDLIST\n")
	return b.String()
}

// SegmentBody is the content a fake pass writes into a segment, tagging it
// with the pass so tests can tell which pass a final file came from.
func SegmentBody(pass, dir string, index int) string {
	return fmt.Sprintf("%s:%s:%05d", pass, dir, index)
}

// WritePassOutput writes what one ffmpeg pass would leave in workDir: the
// master playlist, and per rendition a playlist plus count segments.
// pass is "A" for the encrypted pass and "B" for the plain one.
func WritePassOutput(t testing.TB, w FileWriter, workDir, manifestName string, plan ladder.Plan, first, count int, pass string) {
	t.Helper()
	encrypted := pass == "A"
	if err := w.WriteFile(filepath.Join(workDir, manifestName), []byte(plan.Manifest())); err != nil {
		t.Fatalf("write master playlist: %v", err)
	}
	for _, r := range plan.Renditions {
		dir := filepath.Join(workDir, r.Dir)
		if err := w.WriteFile(filepath.Join(dir, ladder.SubManifest), []byte(MediaPlaylist(first, count, encrypted))); err != nil {
			t.Fatalf("write %s playlist: %v", r.Dir, err)
		}
		for i := first; i < first+count; i++ {
			name := filepath.Join(dir, fmt.Sprintf("video-%05d.ts", i))
			if err := w.WriteFile(name, []byte(SegmentBody(pass, r.Dir, i))); err != nil {
				t.Fatalf("write segment %s: %v", name, err)
			}
		}
	}
}

// OSWriter writes through the real filesystem, creating parent directories.
type OSWriter struct{}

func (OSWriter) WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
