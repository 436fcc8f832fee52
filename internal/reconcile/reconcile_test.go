package reconcile_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hlspack/internal/classify"
	"hlspack/internal/ladder"
	"hlspack/internal/playlist"
	"hlspack/internal/reconcile"
	"hlspack/internal/testsupport"
)

const (
	workDir      = "/out/_movie"
	manifestName = "movie.m3u8"
)

func buildPlan(t *testing.T, class classify.QualityClass) ladder.Plan {
	t.Helper()
	plan, err := ladder.Build(class, 16.0/9.0)
	if err != nil {
		t.Fatalf("ladder.Build: %v", err)
	}
	return plan
}

func readString(t *testing.T, fsys reconcile.FS, path string) string {
	t.Helper()
	data, err := fsys.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

// runFullJob simulates pass A, seal, pass B, merge over segments 0..19.
func runFullJob(t *testing.T, fsys *reconcile.MemFS, plan ladder.Plan) (reconcile.Report, reconcile.Report) {
	t.Helper()
	ctx := context.Background()
	testsupport.WritePassOutput(t, fsys, workDir, manifestName, plan, 0, 20, "A")
	sealRep, err := reconcile.Seal(ctx, fsys, workDir, manifestName, plan)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	testsupport.WritePassOutput(t, fsys, workDir, manifestName, plan, 0, 20, "B")
	mergeRep, err := reconcile.Merge(ctx, fsys, workDir, manifestName, plan)
	if err != nil {
		t.Fatalf("Merge: %v\n%s", err, fsys.Dump())
	}
	return sealRep, mergeRep
}

func TestSealKeepsOnlyProtectedSegments(t *testing.T) {
	fsys := reconcile.NewMemFS()
	plan := buildPlan(t, classify.LowClass)
	testsupport.WritePassOutput(t, fsys, workDir, manifestName, plan, 0, 20, "A")

	rep, err := reconcile.Seal(context.Background(), fsys, workDir, manifestName, plan)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	for _, r := range plan.Renditions {
		names, err := fsys.ReadDir(filepath.Join(workDir, r.Dir))
		if err != nil {
			t.Fatal(err)
		}
		want := []string{"video-00007.ts.enc", "video-00017.ts.enc", "video.m3u8.enc"}
		if strings.Join(names, ",") != strings.Join(want, ",") {
			t.Fatalf("%s after seal: %v", r.Dir, names)
		}
	}
	if _, err := fsys.ReadFile(filepath.Join(workDir, manifestName+".enc")); err != nil {
		t.Fatalf("expected sealed master playlist: %v", err)
	}
	totals := rep.Totals()
	if totals.Sealed != 6 || totals.Removed != 54 {
		t.Fatalf("unexpected seal totals %+v", totals)
	}
}

func TestSealMissingManifestFails(t *testing.T) {
	fsys := reconcile.NewMemFS()
	plan := buildPlan(t, classify.LowClass)
	testsupport.WritePassOutput(t, fsys, workDir, manifestName, plan, 0, 3, "A")
	if err := fsys.Remove(filepath.Join(workDir, "videoHlsXld", "video.m3u8")); err != nil {
		t.Fatal(err)
	}
	before := fsys.Paths()
	if _, err := reconcile.Seal(context.Background(), fsys, workDir, manifestName, plan); err == nil {
		t.Fatal("expected missing playlist error")
	}
	if strings.Join(before, "\n") != strings.Join(fsys.Paths(), "\n") {
		t.Fatal("a failed plan must not touch the tree")
	}
}

func TestMergeSelectsPassPerIndex(t *testing.T) {
	fsys := reconcile.NewMemFS()
	plan := buildPlan(t, classify.FHDClass)
	_, mergeRep := runFullJob(t, fsys, plan)

	for _, r := range plan.Renditions {
		dir := filepath.Join(workDir, r.Dir)
		for i := 0; i < 20; i++ {
			primary := readString(t, fsys, filepath.Join(dir, reconcile.SegmentName(i, reconcile.Primary)))
			wantPass := "B"
			if reconcile.Protected(i) {
				wantPass = "A"
			}
			if primary != testsupport.SegmentBody(wantPass, r.Dir, i) {
				t.Fatalf("%s index %d: primary holds %q, want pass %s", r.Dir, i, primary, wantPass)
			}

			unencPath := filepath.Join(dir, reconcile.SegmentName(i, reconcile.Unenc))
			unenc, err := fsys.ReadFile(unencPath)
			if reconcile.Protected(i) {
				if err != nil || string(unenc) != testsupport.SegmentBody("B", r.Dir, i) {
					t.Fatalf("%s index %d: unenc copy %q err=%v", r.Dir, i, unenc, err)
				}
			} else if !errors.Is(err, os.ErrNotExist) {
				t.Fatalf("%s index %d: unexpected unenc file (err=%v)", r.Dir, i, err)
			}
			if _, err := fsys.ReadFile(filepath.Join(dir, reconcile.SegmentName(i, reconcile.Sealed))); err == nil {
				t.Fatalf("%s index %d: sealed file left behind", r.Dir, i)
			}
		}
	}

	totals := mergeRep.Totals()
	if totals.Merged != 12 || totals.Restored != 12 || totals.Plain != 108 {
		t.Fatalf("unexpected merge totals %+v", totals)
	}
}

func TestMergeManifestsDivergeOnlyAtProtectedIndices(t *testing.T) {
	fsys := reconcile.NewMemFS()
	plan := buildPlan(t, classify.SDClass)
	runFullJob(t, fsys, plan)

	for _, r := range plan.Renditions {
		dir := filepath.Join(workDir, r.Dir)
		primary := playlist.URIs(readString(t, fsys, filepath.Join(dir, "video.m3u8")))
		unenc := playlist.URIs(readString(t, fsys, filepath.Join(dir, "video_unenc.m3u8")))
		if len(primary) != 20 || len(unenc) != 20 {
			t.Fatalf("%s: expected 20 references each, got %d/%d", r.Dir, len(primary), len(unenc))
		}
		unencNamed := 0
		for i := range primary {
			if reconcile.Protected(i) {
				if primary[i] == unenc[i] {
					t.Fatalf("%s index %d: manifests share %q", r.Dir, i, primary[i])
				}
				if !strings.HasSuffix(unenc[i], "_unenc.ts") {
					t.Fatalf("%s index %d: unexpected variant reference %q", r.Dir, i, unenc[i])
				}
				unencNamed++
				continue
			}
			if primary[i] != unenc[i] {
				t.Fatalf("%s index %d: %q != %q", r.Dir, i, primary[i], unenc[i])
			}
		}
		if unencNamed != 2 {
			t.Fatalf("%s: expected 2 variant-only references, got %d", r.Dir, unencNamed)
		}
	}
}

func TestMergeScopesKeyToProtectedSegments(t *testing.T) {
	fsys := reconcile.NewMemFS()
	plan := buildPlan(t, classify.LowClass)
	runFullJob(t, fsys, plan)

	body := readString(t, fsys, filepath.Join(workDir, "videoHlsLd", "video.m3u8"))
	if got := strings.Count(body, "METHOD=AES-128"); got != 2 {
		t.Fatalf("expected key tag before each protected run, got %d:\n%s", got, body)
	}
	for _, idx := range []int{7, 17} {
		want := fmt.Sprintf("%s\n#EXTINF:6.000000,\nvideo-%05d.ts\n#EXT-X-KEY:METHOD=NONE\n", testsupport.KeyTag(idx), idx)
		if !strings.Contains(body, want) {
			t.Fatalf("expected segment %d under its own IV:\n%s", idx, body)
		}
	}
	unenc := readString(t, fsys, filepath.Join(workDir, "videoHlsLd", "video_unenc.m3u8"))
	if strings.Contains(unenc, "EXT-X-KEY") {
		t.Fatalf("variant playlist must not reference the key:\n%s", unenc)
	}
}

func TestMergeWritesBothMasterPlaylists(t *testing.T) {
	fsys := reconcile.NewMemFS()
	plan := buildPlan(t, classify.HDClass)
	runFullJob(t, fsys, plan)

	primary := readString(t, fsys, filepath.Join(workDir, manifestName))
	if primary != plan.Manifest() {
		t.Fatalf("unexpected primary master:\n%s", primary)
	}
	unenc := readString(t, fsys, filepath.Join(workDir, "movie_unenc.m3u8"))
	if strings.Contains(unenc, "/video.m3u8") || strings.Count(unenc, "/video_unenc.m3u8") != 5 {
		t.Fatalf("unexpected variant master:\n%s", unenc)
	}
	if _, err := fsys.ReadFile(filepath.Join(workDir, manifestName+".enc")); err == nil {
		t.Fatal("sealed master should be restored")
	}
}

func TestMergePlanTracksStatuses(t *testing.T) {
	fsys := reconcile.NewMemFS()
	plan := buildPlan(t, classify.LowClass)
	testsupport.WritePassOutput(t, fsys, workDir, manifestName, plan, 0, 20, "A")
	seal, err := reconcile.PlanSeal(fsys, workDir, manifestName, plan)
	if err != nil {
		t.Fatal(err)
	}
	if got := seal.StatusOf("videoHlsLd", 7); len(got) != 1 || got[0] != reconcile.ProtectedSealed {
		t.Fatalf("seal status for 7: %v", got)
	}
	if got := seal.StatusOf("videoHlsLd", 8); len(got) != 1 || got[0] != reconcile.Pending {
		t.Fatalf("seal status for 8: %v", got)
	}
	if err := reconcile.Commit(context.Background(), fsys, seal); err != nil {
		t.Fatal(err)
	}

	testsupport.WritePassOutput(t, fsys, workDir, manifestName, plan, 0, 20, "B")
	merge, err := reconcile.PlanMerge(fsys, workDir, manifestName, plan)
	if err != nil {
		t.Fatal(err)
	}
	got := merge.StatusOf("videoHlsLd", 17)
	if len(got) != 2 || got[0] != reconcile.PlainMerged || got[1] != reconcile.ProtectedSealed {
		t.Fatalf("merge statuses for 17: %v", got)
	}
	if got := merge.StatusOf("videoHlsLd", 3); len(got) != 1 || got[0] != reconcile.PlainMerged {
		t.Fatalf("merge status for 3: %v", got)
	}
}

func TestMergeAbortsOnRenameFailure(t *testing.T) {
	fsys := reconcile.NewMemFS()
	plan := buildPlan(t, classify.LowClass)
	testsupport.WritePassOutput(t, fsys, workDir, manifestName, plan, 0, 20, "A")
	if _, err := reconcile.Seal(context.Background(), fsys, workDir, manifestName, plan); err != nil {
		t.Fatal(err)
	}
	testsupport.WritePassOutput(t, fsys, workDir, manifestName, plan, 0, 20, "B")

	boom := errors.New("disk full")
	fsys.FailOn = map[string]error{filepath.Join(workDir, "videoHlsXld", "video-00017_unenc.ts"): boom}
	if _, err := reconcile.Merge(context.Background(), fsys, workDir, manifestName, plan); !errors.Is(err, boom) {
		t.Fatalf("expected rename failure, got %v", err)
	}
}

func TestSealAndMergeOnDisk(t *testing.T) {
	root := filepath.Join(t.TempDir(), "_movie")
	plan := buildPlan(t, classify.LowClass)
	ctx := context.Background()
	fsys := reconcile.OSFS{}

	testsupport.WritePassOutput(t, testsupport.OSWriter{}, root, manifestName, plan, 1, 20, "A")
	if _, err := reconcile.Seal(ctx, fsys, root, manifestName, plan); err != nil {
		t.Fatalf("Seal: %v", err)
	}
	testsupport.WritePassOutput(t, testsupport.OSWriter{}, root, manifestName, plan, 1, 20, "B")
	if _, err := reconcile.Merge(ctx, fsys, root, manifestName, plan); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	entries, err := os.ReadDir(filepath.Join(root, "videoHlsXXld"))
	if err != nil {
		t.Fatal(err)
	}
	var unenc []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), "_unenc.ts") {
			unenc = append(unenc, e.Name())
		}
		if strings.HasSuffix(e.Name(), ".enc") {
			t.Fatalf("sealed file left on disk: %s", e.Name())
		}
	}
	if strings.Join(unenc, ",") != "video-00007_unenc.ts,video-00017_unenc.ts" {
		t.Fatalf("unexpected variant segments %v", unenc)
	}
	data, err := os.ReadFile(filepath.Join(root, "videoHlsXXld", "video-00017.ts"))
	if err != nil || string(data) != testsupport.SegmentBody("A", "videoHlsXXld", 17) {
		t.Fatalf("index 17 should hold sealed media, got %q (%v)", data, err)
	}
}
