package mirror

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/driftsync/driftsync/internal/utils"
)

// Action is one applied (or attempted) operation, kept for the pass journal.
type Action struct {
	Op      OpType
	RelPath string
	Err     error
}

// PassStats summarizes a single reconciliation pass.
type PassStats struct {
	Started      time.Time
	Took         time.Duration
	DirsCreated  int
	FilesCopied  int
	FilesUpdated int
	Replaced     int
	Deleted      int
	Unchanged    int
	Ignored      int
	Errors       int
	BytesCopied  int64
	Actions      []Action
}

// Mutations returns the number of filesystem changes applied in the pass.
func (s *PassStats) Mutations() int {
	return s.DirsCreated + s.FilesCopied + s.FilesUpdated + s.Replaced + s.Deleted
}

// apply executes the plan against the replica. Per-entry failures are
// logged, counted and skipped; a locked or vanished file must never take
// down the pass, the next tick re-derives the plan and retries naturally.
func (e *Engine) apply(ctx context.Context, plan *ReconcileResult, stats *PassStats) {
	e.applyKindFlips(ctx, plan.KindFlips, stats)
	e.applyDirCreates(ctx, plan.DirCreates, stats)
	e.applyFileWrites(ctx, plan.FileCopies, stats)
	e.applyFileWrites(ctx, plan.FileUpdates, stats)
	e.applyDeletes(ctx, plan.Deletes, stats)
}

func (e *Engine) applyKindFlips(ctx context.Context, batch []*SyncOperation, stats *PassStats) {
	for _, op := range batch {
		if ctx.Err() != nil {
			return
		}

		dstPath := e.replicaAbsPath(op.RelPath)
		var err error
		if op.Replica.IsDir() {
			err = os.RemoveAll(dstPath)
		} else {
			err = os.Remove(dstPath)
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			e.record(stats, op.Op, op.RelPath, err)
			continue
		}

		if op.Source.IsDir() {
			err = os.MkdirAll(dstPath, 0o755)
		} else {
			var n int64
			n, err = utils.CopyFile(op.Source.AbsPath, dstPath)
			stats.BytesCopied += n
		}
		if err != nil {
			e.record(stats, op.Op, op.RelPath, err)
			continue
		}

		stats.Replaced++
		e.record(stats, op.Op, op.RelPath, nil)
	}
}

func (e *Engine) applyDirCreates(ctx context.Context, batch []*SyncOperation, stats *PassStats) {
	for _, op := range batch {
		if ctx.Err() != nil {
			return
		}

		if err := os.MkdirAll(e.replicaAbsPath(op.RelPath), 0o755); err != nil {
			e.record(stats, op.Op, op.RelPath, err)
			continue
		}
		stats.DirsCreated++
		e.record(stats, op.Op, op.RelPath, nil)
	}
}

func (e *Engine) applyFileWrites(ctx context.Context, batch []*SyncOperation, stats *PassStats) {
	for _, op := range batch {
		if ctx.Err() != nil {
			return
		}

		n, err := utils.CopyFile(op.Source.AbsPath, e.replicaAbsPath(op.RelPath))
		stats.BytesCopied += n
		if err != nil {
			e.record(stats, op.Op, op.RelPath, err)
			continue
		}

		if op.Op == OpUpdate {
			stats.FilesUpdated++
		} else {
			stats.FilesCopied++
		}
		e.record(stats, op.Op, op.RelPath, nil)
	}
}

func (e *Engine) applyDeletes(ctx context.Context, batch []*SyncOperation, stats *PassStats) {
	for _, op := range batch {
		if ctx.Err() != nil {
			return
		}

		err := os.Remove(e.replicaAbsPath(op.RelPath))
		if errors.Is(err, fs.ErrNotExist) {
			// already gone, e.g. removed by a kind flip higher up the tree
			continue
		}
		if err != nil {
			e.record(stats, op.Op, op.RelPath, err)
			continue
		}
		stats.Deleted++
		e.record(stats, op.Op, op.RelPath, nil)
	}
}

func (e *Engine) record(stats *PassStats, op OpType, relPath string, err error) {
	stats.Actions = append(stats.Actions, Action{Op: op, RelPath: relPath, Err: err})
	if err != nil {
		stats.Errors++
		slog.Warn("sync", "op", op, "path", relPath, "error", err)
		return
	}
	slog.Info("sync", "op", op, "path", relPath)
}

func (e *Engine) replicaAbsPath(relPath string) string {
	return filepath.Join(e.replica, filepath.FromSlash(relPath))
}
