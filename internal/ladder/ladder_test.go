package ladder

import (
	"math"
	"reflect"
	"strings"
	"testing"

	"hlspack/internal/classify"
	"hlspack/internal/playlist"
)

func TestValidateRungTable(t *testing.T) {
	if err := Validate(); err != nil {
		t.Fatalf("rung table invalid: %v", err)
	}
}

func TestValidateRejectsBrokenTables(t *testing.T) {
	tests := []struct {
		name  string
		rungs []Rung
	}{
		{"empty", nil},
		{"duplicate name", []Rung{
			{Name: "A", Dir: "a", Height: 144, BitrateKbps: 1, Bandwidth: 1, MaxClass: classify.LowClass},
			{Name: "A", Dir: "b", Height: 240, BitrateKbps: 1, Bandwidth: 2, MaxClass: classify.LowClass},
		}},
		{"descending height", []Rung{
			{Name: "A", Dir: "a", Height: 240, BitrateKbps: 1, Bandwidth: 1, MaxClass: classify.LowClass},
			{Name: "B", Dir: "b", Height: 144, BitrateKbps: 1, Bandwidth: 2, MaxClass: classify.LowClass},
		}},
		{"class widens upward", []Rung{
			{Name: "A", Dir: "a", Height: 144, BitrateKbps: 1, Bandwidth: 1, MaxClass: classify.HDClass},
			{Name: "B", Dir: "b", Height: 240, BitrateKbps: 1, Bandwidth: 2, MaxClass: classify.LowClass},
		}},
		{"no base rung", []Rung{
			{Name: "A", Dir: "a", Height: 144, BitrateKbps: 1, Bandwidth: 1, MaxClass: classify.SDClass},
		}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := validateRungs(tc.rungs); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestBuildCardinalityPerClass(t *testing.T) {
	tests := []struct {
		class classify.QualityClass
		names []string
	}{
		{classify.FHDClass, []string{"XXLD", "XLD", "LD", "SD", "HD", "FHD"}},
		{classify.HDClass, []string{"XXLD", "XLD", "LD", "SD", "HD"}},
		{classify.SDClass, []string{"XXLD", "XLD", "LD", "SD"}},
		{classify.LowClass, []string{"XXLD", "XLD", "LD"}},
	}
	for _, tc := range tests {
		plan, err := Build(tc.class, 16.0/9.0)
		if err != nil {
			t.Fatalf("Build(%v) returned error: %v", tc.class, err)
		}
		var got []string
		for _, r := range plan.Renditions {
			got = append(got, r.Name)
		}
		if !reflect.DeepEqual(got, tc.names) {
			t.Fatalf("Build(%v) = %v, want %v", tc.class, got, tc.names)
		}
	}
}

func TestBuildFullHDManifest(t *testing.T) {
	class := classify.ClassOf(1000)
	plan, err := Build(class, 16.0/9.0)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	manifest := plan.Manifest()
	if got := strings.Count(manifest, "#EXT-X-STREAM-INF"); got != 6 {
		t.Fatalf("expected 6 stream lines, got %d", got)
	}
	want := []int{250000, 350000, 550000, 950000, 1650000, 3250000}
	if got := playlist.StreamBandwidths(manifest); !reflect.DeepEqual(got, want) {
		t.Fatalf("bandwidths = %v, want %v", got, want)
	}
	if !strings.HasPrefix(manifest, "#EXTM3U\n#EXT-X-VERSION:3\n#EXT-X-STREAM-INF:BANDWIDTH=250000,RESOLUTION=256x144\nvideoHlsXXld/video.m3u8\n") {
		t.Fatalf("unexpected manifest head:\n%s", manifest)
	}
	if plan.Renditions[5].Width != 1920 || plan.Renditions[0].Width != 256 {
		t.Fatalf("unexpected widths %d / %d", plan.Renditions[0].Width, plan.Renditions[5].Width)
	}
}

func TestBuildLowSource(t *testing.T) {
	plan, err := Build(classify.ClassOf(300), 4.0/3.0)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if len(plan.Renditions) != 3 {
		t.Fatalf("expected 3 renditions, got %d", len(plan.Renditions))
	}
	if !reflect.DeepEqual(plan.Dirs(), []string{"videoHlsXXld", "videoHlsXld", "videoHlsLd"}) {
		t.Fatalf("unexpected dirs %v", plan.Dirs())
	}
	if plan.Renditions[2].Width != 480 {
		t.Fatalf("expected 480 wide LD rung for 4:3, got %d", plan.Renditions[2].Width)
	}
}

func TestBuildRejectsInvalidInput(t *testing.T) {
	if _, err := Build(classify.QualityClass(3), 1.5); err == nil {
		t.Fatal("expected error for invalid class")
	}
	for _, ratio := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if _, err := Build(classify.HDClass, ratio); err == nil {
			t.Fatalf("expected error for ratio %v", ratio)
		}
	}
}

func TestEvenWidthAlwaysEven(t *testing.T) {
	ratios := []float64{16.0 / 9.0, 4.0 / 3.0, 2.39, 1, 0.5625, 1.001, 3.3333}
	for _, r := range ratios {
		for _, h := range []int{1, 2, 3, 144, 240, 360, 480, 720, 1080, 2160} {
			w := EvenWidth(h, r)
			if w < 0 || w%2 != 0 {
				t.Fatalf("EvenWidth(%d, %v) = %d", h, r, w)
			}
		}
	}
	if EvenWidth(144, 16.0/9.0) != 256 {
		t.Fatalf("unexpected width %d", EvenWidth(144, 16.0/9.0))
	}
	if EvenWidth(0, 1) != 0 || EvenWidth(10, math.NaN()) != 0 {
		t.Fatal("expected zero for invalid input")
	}
}
