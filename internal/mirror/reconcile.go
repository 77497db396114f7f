package mirror

import (
	"log/slog"
	"sort"
	"strings"
)

// ReconcileResult is the plan for one pass: the minimal set of operations
// that makes the replica tree match the source tree.
type ReconcileResult struct {
	// DirCreates are directories missing from the replica, parents first.
	DirCreates []*SyncOperation
	// FileCopies are files missing from the replica.
	FileCopies []*SyncOperation
	// FileUpdates are files present on both sides with stale replica content.
	FileUpdates []*SyncOperation
	// KindFlips are paths whose kind differs between the trees; the replica
	// entry is removed and recreated to match the source kind.
	KindFlips []*SyncOperation
	// Deletes are replica-only entries, deepest first so children go before
	// their parent directory.
	Deletes []*SyncOperation

	Unchanged int
	Ignored   int
}

func (r *ReconcileResult) Empty() bool {
	return len(r.DirCreates) == 0 && len(r.FileCopies) == 0 &&
		len(r.FileUpdates) == 0 && len(r.KindFlips) == 0 && len(r.Deletes) == 0
}

// reconcile diffs the two tree states and builds the pass plan. It never
// touches the filesystem beyond the hashing the comparator may do.
func reconcile(srcState, dstState map[string]*Entry, cmp Comparator, ignore *IgnoreList) *ReconcileResult {
	allPaths := make(map[string]struct{}, len(srcState)+len(dstState))
	for path := range srcState {
		allPaths[path] = struct{}{}
	}
	for path := range dstState {
		allPaths[path] = struct{}{}
	}

	result := &ReconcileResult{}

	for path := range allPaths {
		src, srcExists := srcState[path]
		dst, dstExists := dstState[path]

		if ignore != nil {
			isDir := (srcExists && src.IsDir()) || (dstExists && dst.IsDir())
			if ignore.Match(path, isDir) {
				result.Ignored++
				continue
			}
		}

		switch {
		case srcExists && !dstExists:
			if src.IsDir() {
				result.DirCreates = append(result.DirCreates, &SyncOperation{Op: OpMkdir, RelPath: path, Source: src})
			} else {
				result.FileCopies = append(result.FileCopies, &SyncOperation{Op: OpCopy, RelPath: path, Source: src})
			}

		case !srcExists && dstExists:
			result.Deletes = append(result.Deletes, &SyncOperation{Op: OpDelete, RelPath: path, Replica: dst})

		case src.Kind != dst.Kind:
			result.KindFlips = append(result.KindFlips, &SyncOperation{Op: OpReplace, RelPath: path, Source: src, Replica: dst})

		case src.IsDir():
			// both directories, structural presence is all that matters
			result.Unchanged++

		default:
			changed, err := cmp.HasChanged(src, dst)
			if err != nil {
				// Can't tell, so recopy. The next pass settles it.
				slog.Warn("compare", "path", path, "error", err)
				changed = true
			}
			if changed {
				result.FileUpdates = append(result.FileUpdates, &SyncOperation{Op: OpUpdate, RelPath: path, Source: src, Replica: dst})
			} else {
				result.Unchanged++
			}
		}
	}

	// Parents before children on create, children before parents on delete.
	sortByDepth(result.DirCreates, false)
	sortByDepth(result.FileCopies, false)
	sortByDepth(result.Deletes, true)
	sortByDepth(result.FileUpdates, false)
	sortByDepth(result.KindFlips, false)

	return result
}

func sortByDepth(ops []*SyncOperation, deepestFirst bool) {
	sort.Slice(ops, func(i, j int) bool {
		di := strings.Count(ops[i].RelPath, "/")
		dj := strings.Count(ops[j].RelPath, "/")
		if di != dj {
			if deepestFirst {
				return di > dj
			}
			return di < dj
		}
		return ops[i].RelPath < ops[j].RelPath
	})
}
