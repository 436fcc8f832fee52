package playlist

import (
	"strconv"
	"strings"
)

const (
	header  = "#EXTM3U\n"
	version = "#EXT-X-VERSION:3\n"
)

// Variant is one stream entry of a master playlist.
type Variant struct {
	Bandwidth  int
	Resolution string
	URI        string
}

// Master renders a master playlist listing variants in the given order.
func Master(variants []Variant) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString(version)
	for _, v := range variants {
		b.WriteString("#EXT-X-STREAM-INF:BANDWIDTH=")
		b.WriteString(strconv.Itoa(v.Bandwidth))
		if v.Resolution != "" {
			b.WriteString(",RESOLUTION=")
			b.WriteString(v.Resolution)
		}
		b.WriteByte('\n')
		b.WriteString(v.URI)
		b.WriteByte('\n')
	}
	return b.String()
}

// StreamBandwidths returns the BANDWIDTH attribute of every
// EXT-X-STREAM-INF line, in order.
func StreamBandwidths(master string) []int {
	var out []int
	for _, line := range strings.Split(master, "\n") {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), "#EXT-X-STREAM-INF:")
		if !ok {
			continue
		}
		for _, attr := range strings.Split(rest, ",") {
			value, ok := strings.CutPrefix(attr, "BANDWIDTH=")
			if !ok {
				continue
			}
			if n, err := strconv.Atoi(value); err == nil {
				out = append(out, n)
			}
		}
	}
	return out
}
