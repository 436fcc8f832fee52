// Package progress converts ffmpeg stats lines into a combined 0-100
// completion percentage across the encrypted and plain passes.
package progress

import (
	"math"
	"regexp"
	"strconv"
	"sync"
)

var elapsedPattern = regexp.MustCompile(`time=(\d+):(\d{1,2}):(\d{1,2}(?:\.\d+)?)`)

// ParseElapsed extracts the elapsed media time in seconds from a stats line.
func ParseElapsed(line string) (float64, bool) {
	m := elapsedPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	hours, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(m[3], 64)
	if err != nil {
		return 0, false
	}
	return float64(hours*3600+minutes*60) + seconds, true
}

// PassLabel names a pass for logs and updates.
func PassLabel(encrypted bool) string {
	if encrypted {
		return "encrypted"
	}
	return "plain"
}

// Percent maps elapsed seconds of a pass onto the combined scale. The
// encrypted pass covers [0,50] and the plain pass [50,100].
func Percent(elapsed, total float64, encrypted bool) int {
	base := 50
	if encrypted {
		base = 0
	}
	if total <= 0 || math.IsNaN(total) || math.IsNaN(elapsed) || elapsed <= 0 {
		return base
	}
	half := int(math.Round(elapsed / total * 50))
	if half > 50 {
		half = 50
	}
	return base + half
}

// Update is one progress event forwarded to a sink.
type Update struct {
	Percent int
	Elapsed float64
	Pass    string
}

// Sink receives progress updates.
type Sink interface {
	Progress(Update)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Update)

func (f SinkFunc) Progress(u Update) { f(u) }

// Multi fans an update out to several sinks, skipping nil ones.
func Multi(sinks ...Sink) Sink {
	filtered := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	return SinkFunc(func(u Update) {
		for _, s := range filtered {
			s.Progress(u)
		}
	})
}

// Reporter turns stats lines into updates. It only forwards an update when
// the percentage for the pass rises, so reported progress never decreases.
// Reporter is safe for concurrent use.
type Reporter struct {
	mu    sync.Mutex
	total float64
	sink  Sink
	last  map[bool]int
}

// NewReporter builds a reporter for a source of total seconds.
func NewReporter(total float64, sink Sink) *Reporter {
	return &Reporter{total: total, sink: sink, last: map[bool]int{}}
}

// Line parses a stats line of the given pass. Lines without a time token
// are ignored.
func (r *Reporter) Line(encrypted bool, line string) {
	if r == nil {
		return
	}
	elapsed, ok := ParseElapsed(line)
	if !ok {
		return
	}
	r.Observe(encrypted, elapsed)
}

// Observe records an elapsed time for the pass.
func (r *Reporter) Observe(encrypted bool, elapsed float64) {
	if r == nil {
		return
	}
	pct := Percent(elapsed, r.total, encrypted)
	r.mu.Lock()
	prev, seen := r.last[encrypted]
	if seen && pct <= prev {
		r.mu.Unlock()
		return
	}
	r.last[encrypted] = pct
	r.mu.Unlock()
	if r.sink != nil {
		r.sink.Progress(Update{Percent: pct, Elapsed: elapsed, Pass: PassLabel(encrypted)})
	}
}

// Last returns the highest percentage reported for a pass, or -1.
func (r *Reporter) Last(encrypted bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if pct, ok := r.last[encrypted]; ok {
		return pct
	}
	return -1
}
