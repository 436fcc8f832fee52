package reconcile

import (
	"fmt"
	"strconv"
	"strings"

	"hlspack/internal/ladder"
)

const (
	// SealSuffix marks an encrypted-pass file set aside until the merge.
	SealSuffix = ".enc"
	// UnencSuffix is appended to the stem of plain variant files.
	UnencSuffix = "_unenc"

	segmentPrefix = "video-"
	segmentExt    = ".ts"
)

// UnencSubManifest is the plain variant of every rendition playlist.
var UnencSubManifest = strings.TrimSuffix(ladder.SubManifest, ".m3u8") + UnencSuffix + ".m3u8"

// Protected reports whether the segment at index stays encrypted.
func Protected(index int) bool {
	return index%10 == 7
}

// Variant identifies which of the three segment names a file carries.
type Variant int

const (
	// Primary is video-00007.ts.
	Primary Variant = iota
	// Sealed is video-00007.ts.enc.
	Sealed
	// Unenc is video-00007_unenc.ts.
	Unenc
)

func (v Variant) String() string {
	switch v {
	case Primary:
		return "primary"
	case Sealed:
		return "sealed"
	case Unenc:
		return "unenc"
	default:
		return fmt.Sprintf("variant(%d)", int(v))
	}
}

// Segment is a parsed segment file name.
type Segment struct {
	Index   int
	Variant Variant
}

// ParseSegment recognises primary, sealed and unencrypted segment names.
func ParseSegment(name string) (Segment, bool) {
	variant := Primary
	stem, ok := strings.CutSuffix(name, segmentExt+SealSuffix)
	if ok {
		variant = Sealed
	} else if stem, ok = strings.CutSuffix(name, UnencSuffix+segmentExt); ok {
		variant = Unenc
	} else if stem, ok = strings.CutSuffix(name, segmentExt); !ok {
		return Segment{}, false
	}
	digits, ok := strings.CutPrefix(stem, segmentPrefix)
	if !ok || digits == "" {
		return Segment{}, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return Segment{}, false
		}
	}
	index, err := strconv.Atoi(digits)
	if err != nil {
		return Segment{}, false
	}
	return Segment{Index: index, Variant: variant}, true
}

// SegmentName renders the file name of index in the given variant.
func SegmentName(index int, variant Variant) string {
	base := fmt.Sprintf("%s%05d", segmentPrefix, index)
	switch variant {
	case Sealed:
		return base + segmentExt + SealSuffix
	case Unenc:
		return base + UnencSuffix + segmentExt
	default:
		return base + segmentExt
	}
}

// UnencManifestName returns the plain variant of a top-level playlist name.
func UnencManifestName(name string) string {
	return strings.TrimSuffix(name, ".m3u8") + UnencSuffix + ".m3u8"
}
