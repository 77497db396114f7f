// Package mirror implements one-way directory mirroring: a tree walker, a
// diff-and-reconcile engine, and the supporting ignore list, pass journal,
// source watcher and run lock.
package mirror

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/driftsync/driftsync/internal/config"
	"github.com/driftsync/driftsync/internal/utils"
)

const (
	journalFile = "driftsync.db"
	lockFile    = "driftsync.lock"
)

// Manager wires the engine together with its collaborators from a validated
// config and owns their lifecycles.
type Manager struct {
	cfg     *config.Config
	lock    *RunLock
	journal *PassJournal
	watcher *SourceWatcher
	engine  *Engine
}

func NewManager(cfg *config.Config) (*Manager, error) {
	cmp, err := NewComparator(cfg.Compare)
	if err != nil {
		return nil, err
	}

	ignore := NewIgnoreList(cfg.SourceDir)

	var watcher *SourceWatcher
	if cfg.Watch {
		watcher = NewSourceWatcher(cfg.SourceDir)
	}

	// The journal is an audit trail; losing it degrades nothing.
	journal, err := NewPassJournal(filepath.Join(cfg.LogDir, journalFile))
	if err != nil {
		slog.Warn("pass journal disabled", "error", err)
		journal = nil
	}

	engine := NewEngine(cfg.SourceDir, cfg.ReplicaDir, cmp, ignore, journal, watcher, cfg.Interval(), cfg.DryRun)

	return &Manager{
		cfg:     cfg,
		lock:    NewRunLock(filepath.Join(cfg.LogDir, lockFile)),
		journal: journal,
		watcher: watcher,
		engine:  engine,
	}, nil
}

// Run acquires the run lock and drives the engine until ctx is cancelled,
// or for exactly one pass in once mode.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.lock.Acquire(); err != nil {
		return err
	}
	defer m.lock.Release()

	if m.journal != nil {
		defer m.journal.Close()
	}

	if err := utils.EnsureDir(m.cfg.ReplicaDir); err != nil {
		return fmt.Errorf("create replica directory: %w", err)
	}

	if m.cfg.Once {
		_, err := m.engine.RunPass(ctx)
		return err
	}

	if m.watcher != nil {
		if err := m.watcher.Start(ctx); err != nil {
			return fmt.Errorf("start source watcher: %w", err)
		}
		defer m.watcher.Stop()
	}

	return m.engine.Run(ctx)
}
