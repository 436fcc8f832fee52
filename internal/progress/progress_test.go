package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseElapsed(t *testing.T) {
	tests := []struct {
		line string
		want float64
		ok   bool
	}{
		{"frame=  250 fps= 50 q=20.0 size=N/A time=00:00:10.00 bitrate=N/A speed=2x", 10, true},
		{"size=1024kB time=01:02:03.50 bitrate=135.2kbits/s", 3723.5, true},
		{"time=00:00:06", 6, true},
		{"time=N/A bitrate=N/A", 0, false},
		{"Input #0, mov,mp4,m4a,3gp,3g2,mj2, from 'in.mp4':", 0, false},
		{"", 0, false},
	}
	for _, tc := range tests {
		got, ok := ParseElapsed(tc.line)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseElapsed(%q) = %v,%v want %v,%v", tc.line, got, ok, tc.want, tc.ok)
		}
	}
}

func TestPercentSpansHalves(t *testing.T) {
	tests := []struct {
		elapsed, total float64
		encrypted      bool
		want           int
	}{
		{0, 12, true, 0},
		{6, 12, true, 25},
		{12, 12, true, 50},
		{20, 12, true, 50},
		{0, 12, false, 50},
		{3, 12, false, 63},
		{12, 12, false, 100},
		{99, 12, false, 100},
		{5, 0, true, 0},
		{5, 0, false, 50},
	}
	for _, tc := range tests {
		if got := Percent(tc.elapsed, tc.total, tc.encrypted); got != tc.want {
			t.Fatalf("Percent(%v, %v, %v) = %d, want %d", tc.elapsed, tc.total, tc.encrypted, got, tc.want)
		}
	}
}

func TestReporterIsMonotonicPerPass(t *testing.T) {
	var got []Update
	r := NewReporter(100, SinkFunc(func(u Update) { got = append(got, u) }))

	for _, line := range []string{
		"time=00:00:00.00",
		"time=00:00:10.00",
		"noise without a token",
		"time=00:00:05.00",
		"time=00:00:10.00",
		"time=00:01:40.00",
	} {
		r.Line(true, line)
	}
	for _, line := range []string{"time=00:00:00.00", "time=00:00:50.00", "time=00:00:40.00", "time=00:01:40.00"} {
		r.Line(false, line)
	}

	wantPct := []int{0, 5, 50, 50, 75, 100}
	if len(got) != len(wantPct) {
		t.Fatalf("expected %d updates, got %+v", len(wantPct), got)
	}
	for i, u := range got {
		if u.Percent != wantPct[i] {
			t.Fatalf("update %d: percent %d, want %d", i, u.Percent, wantPct[i])
		}
	}
	if got[0].Pass != "encrypted" || got[3].Pass != "plain" {
		t.Fatalf("unexpected pass labels %+v", got)
	}
	if r.Last(true) != 50 || r.Last(false) != 100 {
		t.Fatalf("unexpected last values %d/%d", r.Last(true), r.Last(false))
	}
}

func TestMultiSkipsNil(t *testing.T) {
	count := 0
	sink := Multi(nil, SinkFunc(func(Update) { count++ }), nil)
	sink.Progress(Update{Percent: 1})
	if count != 1 {
		t.Fatalf("expected one delivery, got %d", count)
	}
}

func TestTerminalSinkDrawsBar(t *testing.T) {
	var buf bytes.Buffer
	sink := newTerminalSink(&buf)
	sink.Progress(Update{Percent: 40, Pass: "encrypted"})
	if out := buf.String(); !strings.Contains(out, "40%") || !strings.Contains(out, "encrypted") {
		t.Fatalf("unexpected output %q", out)
	}
	sink.Progress(Update{Percent: 100, Pass: "plain"})
	out := buf.String()
	if !strings.Contains(out, "100%") || !strings.Contains(out, "plain") {
		t.Fatalf("unexpected output %q", out)
	}
	if !strings.HasSuffix(out, "\n") {
		t.Fatalf("expected newline at completion, got %q", out)
	}
}

func TestSamplerEmitsPerBucketAndPass(t *testing.T) {
	s := newSampler(10)
	steps := []struct {
		update Update
		want   bool
	}{
		{Update{Percent: 0, Pass: "encrypted"}, true},
		{Update{Percent: 4, Pass: "encrypted"}, false},
		{Update{Percent: 10, Pass: "encrypted"}, true},
		{Update{Percent: 19, Pass: "encrypted"}, false},
		{Update{Percent: 50, Pass: "plain"}, true},
		{Update{Percent: 55, Pass: "plain"}, false},
		{Update{Percent: 100, Pass: "plain"}, true},
		{Update{Percent: 100, Pass: "plain"}, false},
	}
	for i, step := range steps {
		if got := s.due(step.update); got != step.want {
			t.Fatalf("step %d (%+v): got %v want %v", i, step.update, got, step.want)
		}
	}
}
