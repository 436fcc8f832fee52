// Package ladder holds the fixed rendition table and plans which rungs a
// source of a given quality class produces.
package ladder

import (
	"errors"
	"fmt"
	"math"
	"path"

	"hlspack/internal/classify"
	"hlspack/internal/playlist"
)

// SubManifest is the file name of every rendition's primary media playlist.
const SubManifest = "video.m3u8"

// Rung is one row of the rendition table.
type Rung struct {
	Name        string
	Dir         string
	Height      int
	BitrateKbps int
	Bandwidth   int
	// Resolution is the nominal 16:9 size advertised in the master playlist.
	Resolution string
	// MaxClass is the highest class ordinal that still includes this rung.
	MaxClass classify.QualityClass
}

// Rungs is ordered lowest resolution first.
var Rungs = []Rung{
	{Name: "XXLD", Dir: "videoHlsXXld", Height: 144, BitrateKbps: 50, Bandwidth: 250000, Resolution: "256x144", MaxClass: classify.LowClass},
	{Name: "XLD", Dir: "videoHlsXld", Height: 240, BitrateKbps: 100, Bandwidth: 350000, Resolution: "426x240", MaxClass: classify.LowClass},
	{Name: "LD", Dir: "videoHlsLd", Height: 360, BitrateKbps: 200, Bandwidth: 550000, Resolution: "640x360", MaxClass: classify.LowClass},
	{Name: "SD", Dir: "videoHlsSd", Height: 480, BitrateKbps: 700, Bandwidth: 950000, Resolution: "854x480", MaxClass: classify.SDClass},
	{Name: "HD", Dir: "videoHlsHd", Height: 720, BitrateKbps: 1300, Bandwidth: 1650000, Resolution: "1280x720", MaxClass: classify.HDClass},
	{Name: "FHD", Dir: "videoHlsFhd", Height: 1080, BitrateKbps: 2300, Bandwidth: 3250000, Resolution: "1920x1080", MaxClass: classify.FHDClass},
}

// Validate checks the rung table once at startup.
func Validate() error {
	return validateRungs(Rungs)
}

func validateRungs(rungs []Rung) error {
	if len(rungs) == 0 {
		return errors.New("ladder: empty rung table")
	}
	names := make(map[string]struct{}, len(rungs))
	dirs := make(map[string]struct{}, len(rungs))
	base := 0
	for i, r := range rungs {
		if r.Name == "" || r.Dir == "" {
			return fmt.Errorf("ladder: rung %d: name and dir are required", i)
		}
		if _, dup := names[r.Name]; dup {
			return fmt.Errorf("ladder: duplicate rung name %q", r.Name)
		}
		if _, dup := dirs[r.Dir]; dup {
			return fmt.Errorf("ladder: duplicate rung dir %q", r.Dir)
		}
		names[r.Name] = struct{}{}
		dirs[r.Dir] = struct{}{}
		if r.Height <= 0 || r.BitrateKbps <= 0 || r.Bandwidth <= 0 {
			return fmt.Errorf("ladder: rung %s: height, bitrate and bandwidth must be positive", r.Name)
		}
		if !r.MaxClass.Valid() {
			return fmt.Errorf("ladder: rung %s: invalid class %d", r.Name, int(r.MaxClass))
		}
		if i > 0 {
			prev := rungs[i-1]
			if r.Height <= prev.Height || r.Bandwidth <= prev.Bandwidth {
				return fmt.Errorf("ladder: rung %s must be larger than %s", r.Name, prev.Name)
			}
			if r.MaxClass > prev.MaxClass {
				return fmt.Errorf("ladder: rung %s is included by more classes than %s", r.Name, prev.Name)
			}
		}
		if r.MaxClass == classify.LowClass {
			base++
		}
	}
	if base == 0 {
		return errors.New("ladder: no rung is produced for the lowest class")
	}
	return nil
}

// RenditionSpec is a rung resolved against a source aspect ratio.
type RenditionSpec struct {
	Name        string `json:"name"`
	Dir         string `json:"dir"`
	Height      int    `json:"height"`
	Width       int    `json:"width"`
	BitrateKbps int    `json:"bitrate_kbps"`
	BufferKbps  int    `json:"buffer_kbps"`
	Bandwidth   int    `json:"bandwidth"`
	Resolution  string `json:"resolution"`
}

// SubManifestPath is the rendition's playlist path relative to the job root.
func (r RenditionSpec) SubManifestPath() string {
	return path.Join(r.Dir, SubManifest)
}

// Plan is the ordered rendition set for one job. It is built once and used
// by both transcode passes.
type Plan struct {
	Class      classify.QualityClass `json:"class"`
	Ratio      float64               `json:"ratio"`
	Renditions []RenditionSpec       `json:"renditions"`
}

// EvenWidth returns height*ratio rounded to the nearest even integer.
// Invalid inputs yield 0.
func EvenWidth(height int, ratio float64) int {
	if height <= 0 || ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return 0
	}
	return int(math.Round(float64(height)*ratio/2)) * 2
}

// Build selects every rung whose MaxClass is at least class, in table order.
func Build(class classify.QualityClass, ratio float64) (Plan, error) {
	if !class.Valid() {
		return Plan{}, fmt.Errorf("ladder: invalid quality class %d", int(class))
	}
	if ratio <= 0 || math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return Plan{}, fmt.Errorf("ladder: invalid aspect ratio %v", ratio)
	}
	plan := Plan{Class: class, Ratio: ratio}
	for _, r := range Rungs {
		if r.MaxClass < class {
			continue
		}
		plan.Renditions = append(plan.Renditions, RenditionSpec{
			Name:        r.Name,
			Dir:         r.Dir,
			Height:      r.Height,
			Width:       EvenWidth(r.Height, ratio),
			BitrateKbps: r.BitrateKbps,
			BufferKbps:  r.BitrateKbps,
			Bandwidth:   r.Bandwidth,
			Resolution:  r.Resolution,
		})
	}
	return plan, nil
}

// Dirs lists the rendition directories of the plan.
func (p Plan) Dirs() []string {
	dirs := make([]string, 0, len(p.Renditions))
	for _, r := range p.Renditions {
		dirs = append(dirs, r.Dir)
	}
	return dirs
}

// Manifest renders the top-level master playlist for the plan.
func (p Plan) Manifest() string {
	variants := make([]playlist.Variant, 0, len(p.Renditions))
	for _, r := range p.Renditions {
		variants = append(variants, playlist.Variant{
			Bandwidth:  r.Bandwidth,
			Resolution: r.Resolution,
			URI:        r.SubManifestPath(),
		})
	}
	return playlist.Master(variants)
}
