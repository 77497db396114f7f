package mirror

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/driftsync/driftsync/internal/config"
)

const (
	// DefaultFrequency is the interval between passes when none is configured.
	DefaultFrequency = time.Duration(config.DefaultFrequency) * time.Second

	// watchDebounce is how long after a source change the next pass is
	// scheduled, coalescing bursts of events into one pass.
	watchDebounce = 2 * time.Second
)

var ErrPassAlreadyRunning = errors.New("sync pass already running")

// Engine turns the replica tree into a copy of the source tree, once per
// RunPass. Run drives passes on a timer until the context is cancelled.
type Engine struct {
	source    string
	replica   string
	cmp       Comparator
	ignore    *IgnoreList
	journal   *PassJournal
	watcher   *SourceWatcher
	frequency time.Duration
	dryRun    bool
	muSync    sync.Mutex
}

func NewEngine(sourceDir, replicaDir string, cmp Comparator, ignore *IgnoreList, journal *PassJournal, watcher *SourceWatcher, frequency time.Duration, dryRun bool) *Engine {
	if frequency <= 0 {
		frequency = DefaultFrequency
	}
	return &Engine{
		source:    sourceDir,
		replica:   replicaDir,
		cmp:       cmp,
		ignore:    ignore,
		journal:   journal,
		watcher:   watcher,
		frequency: frequency,
		dryRun:    dryRun,
	}
}

// Run performs an initial pass and then one pass per tick until ctx is
// cancelled. A pass that overruns the interval delays the next tick, it is
// never queued behind it.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("mirror start", "source", e.source, "replica", e.replica, "frequency", e.frequency, "dry_run", e.dryRun)

	if _, err := e.RunPass(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("initial pass", "error", err)
	}

	var events <-chan string
	if e.watcher != nil {
		events = e.watcher.Events()
	}

	// using a timer and not a ticker to avoid queued ticks when a pass
	// takes more than the configured frequency to complete
	timer := time.NewTimer(e.frequency)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("mirror stop")
			return nil

		case <-timer.C:
			if _, err := e.RunPass(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("pass", "error", err)
			}
			timer.Reset(e.frequency)

		case path, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if e.ignore != nil && e.ignore.Match(path, false) {
				continue
			}
			slog.Debug("source changed", "path", path)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(watchDebounce)
		}
	}
}

// RunPass executes one full reconciliation pass and returns its stats.
// Concurrent calls are rejected with ErrPassAlreadyRunning.
func (e *Engine) RunPass(ctx context.Context) (*PassStats, error) {
	if !e.muSync.TryLock() {
		return nil, ErrPassAlreadyRunning
	}
	defer e.muSync.Unlock()

	stats := &PassStats{Started: time.Now()}

	srcState, err := Walk(ctx, e.source)
	if err != nil {
		return nil, fmt.Errorf("scan source: %w", err)
	}

	dstState, err := Walk(ctx, e.replica)
	if err != nil {
		return nil, fmt.Errorf("scan replica: %w", err)
	}

	plan := reconcile(srcState, dstState, e.cmp, e.ignore)
	stats.Unchanged = plan.Unchanged
	stats.Ignored = plan.Ignored

	if e.dryRun {
		e.logPlan(plan)
	} else {
		e.apply(ctx, plan, stats)
	}

	stats.Took = time.Since(stats.Started)

	if !plan.Empty() || stats.Errors > 0 {
		slog.Info("pass complete",
			"took", stats.Took,
			"dirs_created", stats.DirsCreated,
			"copied", stats.FilesCopied,
			"updated", stats.FilesUpdated,
			"replaced", stats.Replaced,
			"deleted", stats.Deleted,
			"unchanged", stats.Unchanged,
			"errors", stats.Errors,
			"bytes", humanize.Bytes(uint64(stats.BytesCopied)),
		)
	}

	if e.journal != nil {
		if err := e.journal.RecordPass(stats); err != nil {
			slog.Warn("pass journal", "error", err)
		}
	}

	if ctx.Err() != nil {
		return stats, ctx.Err()
	}
	return stats, nil
}

func (e *Engine) logPlan(plan *ReconcileResult) {
	batches := [][]*SyncOperation{plan.KindFlips, plan.DirCreates, plan.FileCopies, plan.FileUpdates, plan.Deletes}
	for _, batch := range batches {
		for _, op := range batch {
			slog.Info("plan", "op", op.Op, "path", op.RelPath)
		}
	}
}
