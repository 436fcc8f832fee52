package playlist

import (
	"reflect"
	"strings"
	"testing"
)

func TestMasterRendersVariantsInOrder(t *testing.T) {
	got := Master([]Variant{
		{Bandwidth: 250000, Resolution: "256x144", URI: "videoHlsXXld/video.m3u8"},
		{Bandwidth: 350000, Resolution: "426x240", URI: "videoHlsXld/video.m3u8"},
	})
	want := "#EXTM3U\n#EXT-X-VERSION:3\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=250000,RESOLUTION=256x144\nvideoHlsXXld/video.m3u8\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=350000,RESOLUTION=426x240\nvideoHlsXld/video.m3u8\n"
	if got != want {
		t.Fatalf("unexpected master:\n%s\nwant:\n%s", got, want)
	}
	if bw := StreamBandwidths(got); !reflect.DeepEqual(bw, []int{250000, 350000}) {
		t.Fatalf("unexpected bandwidths %v", bw)
	}
}

func TestRewriteURIsKeepsDirectories(t *testing.T) {
	master := Master([]Variant{{Bandwidth: 1, URI: "videoHlsLd/video.m3u8"}})
	got := RewriteURIs(master, func(base string) string {
		if base == "video.m3u8" {
			return "video_unenc.m3u8"
		}
		return base
	})
	if !strings.Contains(got, "\nvideoHlsLd/video_unenc.m3u8\n") {
		t.Fatalf("expected rewritten reference, got %q", got)
	}
	if !strings.HasPrefix(got, "#EXTM3U\n#EXT-X-VERSION:3\n") {
		t.Fatalf("header altered: %q", got)
	}
}

const encryptedMedia = `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:6
#EXT-X-MEDIA-SEQUENCE:6
#EXT-X-PLAYLIST-TYPE:VOD
#EXT-X-KEY:METHOD=AES-128,URI="enc.key",IV=0x00000000000000000000000000000006
#EXTINF:6.000000,
video-00006.ts
#EXT-X-KEY:METHOD=AES-128,URI="enc.key",IV=0x00000000000000000000000000000007
#EXTINF:6.000000,
video-00007.ts
#EXT-X-KEY:METHOD=AES-128,URI="enc.key",IV=0x00000000000000000000000000000008
#EXTINF:6.000000,
video-00008.ts
#EXT-X-KEY:METHOD=AES-128,URI="enc.key",IV=0x00000000000000000000000000000009
#EXTINF:6.000000,
video-00009.ts
#EXT-X-KEY:METHOD=AES-128,URI="enc.key",IV=0x00000000000000000000000000000011
#EXTINF:6.000000,
video-00017.ts
#EXT-X-ENDLIST
`

func TestScopeKeysLimitsKeyToSelectedSegments(t *testing.T) {
	got := ScopeKeys(encryptedMedia, func(base string) bool {
		return base == "video-00007.ts" || base == "video-00017.ts"
	})
	want := `#EXTM3U
#EXT-X-VERSION:3
#EXT-X-TARGETDURATION:6
#EXT-X-MEDIA-SEQUENCE:6
#EXT-X-PLAYLIST-TYPE:VOD
#EXTINF:6.000000,
video-00006.ts
#EXT-X-KEY:METHOD=AES-128,URI="enc.key",IV=0x00000000000000000000000000000007
#EXTINF:6.000000,
video-00007.ts
#EXT-X-KEY:METHOD=NONE
#EXTINF:6.000000,
video-00008.ts
#EXTINF:6.000000,
video-00009.ts
#EXT-X-KEY:METHOD=AES-128,URI="enc.key",IV=0x00000000000000000000000000000011
#EXTINF:6.000000,
video-00017.ts
#EXT-X-ENDLIST
`
	if got != want {
		t.Fatalf("unexpected scoped playlist:\n%s\nwant:\n%s", got, want)
	}
}

func TestScopeKeysKeepsPerSegmentIVInsideRun(t *testing.T) {
	got := ScopeKeys(encryptedMedia, func(base string) bool {
		return base == "video-00006.ts" || base == "video-00007.ts"
	})
	for _, tc := range []struct {
		segment string
		iv      string
	}{
		{"video-00006.ts", "IV=0x00000000000000000000000000000006"},
		{"video-00007.ts", "IV=0x00000000000000000000000000000007"},
	} {
		want := "," + tc.iv + "\n#EXTINF:6.000000,\n" + tc.segment + "\n"
		if !strings.Contains(got, want) {
			t.Fatalf("%s not under its own key tag:\n%s", tc.segment, got)
		}
	}
	if strings.Count(got, "METHOD=AES-128") != 2 {
		t.Fatalf("expected exactly two key tags:\n%s", got)
	}
}

func TestScopeKeysSingleKeyTagCoversLaterSegments(t *testing.T) {
	src := "#EXTM3U\n#EXT-X-KEY:METHOD=AES-128,URI=\"enc.key\"\n#EXTINF:6.0,\nvideo-00006.ts\n#EXTINF:6.0,\nvideo-00007.ts\n#EXT-X-ENDLIST\n"
	got := ScopeKeys(src, func(base string) bool { return base == "video-00007.ts" })
	want := "#EXTM3U\n#EXTINF:6.0,\nvideo-00006.ts\n#EXT-X-KEY:METHOD=AES-128,URI=\"enc.key\"\n#EXTINF:6.0,\nvideo-00007.ts\n#EXT-X-ENDLIST\n"
	if got != want {
		t.Fatalf("unexpected scoped playlist:\n%s", got)
	}
}

func TestScopeKeysWithoutKeyIsNoop(t *testing.T) {
	plain := "#EXTM3U\n#EXTINF:6.0,\nvideo-00007.ts\n#EXT-X-ENDLIST\n"
	if got := ScopeKeys(plain, func(string) bool { return true }); got != plain {
		t.Fatalf("expected unchanged playlist, got %q", got)
	}
}

func TestURIs(t *testing.T) {
	got := URIs(encryptedMedia)
	if len(got) != 5 || got[0] != "video-00006.ts" || got[4] != "video-00017.ts" {
		t.Fatalf("unexpected uris %v", got)
	}
}
