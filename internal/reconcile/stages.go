package reconcile

import (
	"context"
	"fmt"

	"hlspack/internal/ladder"
	"hlspack/internal/playlist"
)

const (
	stageSeal  = "seal"
	stageMerge = "merge"
)

// PlanSeal builds the stage-one plan for the encrypted pass output.
func PlanSeal(fsys FS, workDir, manifestName string, plan ladder.Plan) (Plan, error) {
	out := Plan{Stage: stageSeal, Report: Report{Stage: stageSeal}}

	root, err := inventory(fsys, workDir)
	if err != nil {
		return Plan{}, err
	}
	if !hasFile(root, manifestName) {
		return Plan{}, fmt.Errorf("seal: master playlist %s missing", manifestName)
	}
	out.rename(join(workDir, manifestName), join(workDir, manifestName+SealSuffix))

	for _, r := range plan.Renditions {
		dir := join(workDir, r.Dir)
		entries, err := inventory(fsys, dir)
		if err != nil {
			return Plan{}, fmt.Errorf("seal: %w", err)
		}
		if !hasFile(entries, ladder.SubManifest) {
			return Plan{}, fmt.Errorf("seal: %s/%s missing", r.Dir, ladder.SubManifest)
		}
		out.rename(join(dir, ladder.SubManifest), join(dir, ladder.SubManifest+SealSuffix))

		rep := RenditionReport{Rendition: r.Name}
		for _, e := range entries {
			if !e.isSeg || e.segment.Variant != Primary {
				if e.name != ladder.SubManifest {
					rep.Ignored++
				}
				continue
			}
			idx := e.segment.Index
			if Protected(idx) {
				sealed := SegmentName(idx, Sealed)
				out.rename(join(dir, e.name), join(dir, sealed))
				out.track(r.Dir, idx, sealed, ProtectedSealed)
				rep.Sealed++
				continue
			}
			out.remove(join(dir, e.name))
			out.track(r.Dir, idx, e.name, Pending)
			rep.Removed++
		}
		out.Report.Renditions = append(out.Report.Renditions, rep)
	}
	return out, nil
}

// PlanMerge builds the stage-two plan for the plain pass output. Sealed
// files must already exist from PlanSeal.
func PlanMerge(fsys FS, workDir, manifestName string, plan ladder.Plan) (Plan, error) {
	out := Plan{Stage: stageMerge, Report: Report{Stage: stageMerge}}

	master := join(workDir, manifestName)
	fresh, err := fsys.ReadFile(master)
	if err != nil {
		return Plan{}, fmt.Errorf("merge: read plain master playlist: %w", err)
	}
	unencMaster := playlist.RewriteURIs(string(fresh), func(base string) string {
		if base == ladder.SubManifest {
			return UnencSubManifest
		}
		return base
	})
	out.write(join(workDir, UnencManifestName(manifestName)), []byte(unencMaster))
	root, err := inventory(fsys, workDir)
	if err != nil {
		return Plan{}, err
	}
	if !hasFile(root, manifestName+SealSuffix) {
		return Plan{}, fmt.Errorf("merge: sealed master playlist %s missing", manifestName+SealSuffix)
	}
	out.rename(join(workDir, manifestName+SealSuffix), master)

	for _, r := range plan.Renditions {
		dir := join(workDir, r.Dir)
		entries, err := inventory(fsys, dir)
		if err != nil {
			return Plan{}, fmt.Errorf("merge: %w", err)
		}

		primaryPath := join(dir, ladder.SubManifest)
		sealedPath := primaryPath + SealSuffix
		plainManifest, err := fsys.ReadFile(primaryPath)
		if err != nil {
			return Plan{}, fmt.Errorf("merge: read plain playlist %s: %w", r.Dir, err)
		}
		sealedManifest, err := fsys.ReadFile(sealedPath)
		if err != nil {
			return Plan{}, fmt.Errorf("merge: read sealed playlist %s: %w", r.Dir, err)
		}

		unenc := playlist.RewriteURIs(string(plainManifest), unencReference)
		out.write(join(dir, UnencSubManifest), []byte(unenc))

		out.rename(sealedPath, primaryPath)
		scoped := playlist.ScopeKeys(string(sealedManifest), protectedReference)
		if scoped != string(sealedManifest) {
			out.write(primaryPath, []byte(scoped))
		}

		rep := RenditionReport{Rendition: r.Name}
		var sealed []inventoryEntry
		for _, e := range entries {
			if !e.isSeg {
				if e.name != ladder.SubManifest && e.name != ladder.SubManifest+SealSuffix {
					rep.Ignored++
				}
				continue
			}
			idx := e.segment.Index
			switch e.segment.Variant {
			case Primary:
				if Protected(idx) {
					unencName := SegmentName(idx, Unenc)
					out.rename(join(dir, e.name), join(dir, unencName))
					out.track(r.Dir, idx, unencName, PlainMerged)
					rep.Merged++
					continue
				}
				out.track(r.Dir, idx, e.name, PlainMerged)
				rep.Plain++
			case Sealed:
				sealed = append(sealed, e)
			default:
				rep.Ignored++
			}
		}
		// Sealed segments move back only after every plain protected
		// segment has left the primary name.
		for _, e := range sealed {
			primary := SegmentName(e.segment.Index, Primary)
			out.rename(join(dir, e.name), join(dir, primary))
			out.track(r.Dir, e.segment.Index, primary, ProtectedSealed)
			rep.Restored++
		}
		out.Report.Renditions = append(out.Report.Renditions, rep)
	}
	return out, nil
}

func unencReference(base string) string {
	seg, ok := ParseSegment(base)
	if !ok || seg.Variant != Primary || !Protected(seg.Index) {
		return base
	}
	return SegmentName(seg.Index, Unenc)
}

func protectedReference(base string) bool {
	seg, ok := ParseSegment(base)
	return ok && Protected(seg.Index)
}

// Seal plans and commits stage one.
func Seal(ctx context.Context, fsys FS, workDir, manifestName string, plan ladder.Plan) (Report, error) {
	p, err := PlanSeal(fsys, workDir, manifestName, plan)
	if err != nil {
		return Report{}, err
	}
	if err := Commit(ctx, fsys, p); err != nil {
		return Report{}, err
	}
	return p.Report, nil
}

// Merge plans and commits stage two.
func Merge(ctx context.Context, fsys FS, workDir, manifestName string, plan ladder.Plan) (Report, error) {
	p, err := PlanMerge(fsys, workDir, manifestName, plan)
	if err != nil {
		return Report{}, err
	}
	if err := Commit(ctx, fsys, p); err != nil {
		return Report{}, err
	}
	return p.Report, nil
}
