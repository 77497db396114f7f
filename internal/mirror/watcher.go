package mirror

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/rjeczalik/notify"
)

// SourceWatcher reports paths changed under the source tree, relative to it.
// The engine uses the events to pull the next pass forward instead of
// waiting out the full frequency.
type SourceWatcher struct {
	watchDir string
	raw      chan notify.EventInfo
	events   chan string
}

func NewSourceWatcher(watchDir string) *SourceWatcher {
	return &SourceWatcher{
		watchDir: watchDir,
		raw:      make(chan notify.EventInfo, 64),
		events:   make(chan string, 64),
	}
}

func (w *SourceWatcher) Start(ctx context.Context) error {
	slog.Info("source watcher start", "dir", w.watchDir)

	if err := notify.Watch(filepath.Join(w.watchDir, "..."), w.raw, notify.All); err != nil {
		return err
	}

	go func() {
		defer close(w.events)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.raw:
				if !ok {
					return
				}
				relPath, err := filepath.Rel(w.watchDir, ev.Path())
				if err != nil {
					continue
				}
				select {
				case w.events <- filepath.ToSlash(relPath):
				default:
					// a full buffer means a pass is already imminent
				}
			}
		}
	}()

	return nil
}

func (w *SourceWatcher) Stop() {
	notify.Stop(w.raw)
	close(w.raw)
	slog.Info("source watcher stop")
}

func (w *SourceWatcher) Events() <-chan string {
	return w.events
}
